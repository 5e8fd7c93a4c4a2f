package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/pkg/utils"
)

// GameTypeRequest 创建/更新游戏类型请求
type GameTypeRequest struct {
	Name             string                `json:"name"`
	Description      string                `json:"description"`
	ScoringDirection string                `json:"scoringDirection"`
	DefaultRounds    *int                  `json:"defaultRounds"`
	ScoringConfig    *engine.ScoringConfig `json:"scoringConfig"`
}

// EngineInfo 引擎描述信息
type EngineInfo struct {
	Name          string                `json:"name"`
	DefaultConfig engine.ScoringConfig  `json:"defaultConfig"`
	Options       []engine.ConfigOption `json:"options"`
	Inputs        []engine.InputSpec    `json:"inputs"`
}

// visibleGameType 获取游戏类型并校验可见性，失败时已写入响应
func visibleGameType(w http.ResponseWriter, r *http.Request) *database.GameType {
	gameTypeID, ok := parseID(r, "gameTypeId")
	if !ok {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的游戏类型ID", nil)
		return nil
	}

	gt, err := database.GetGameTypeByID(r.Context(), gameTypeID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return nil
	}

	userID := middleware.GetSessionUserID(r)
	if gt == nil || (!gt.IsSystem && (gt.UserID == nil || *gt.UserID != userID)) {
		utils.ErrorResponse(w, http.StatusNotFound, "游戏类型不存在", nil)
		return nil
	}
	return gt
}

// ListGameTypes 处理 GET /api/game-types
func ListGameTypes(w http.ResponseWriter, r *http.Request) {
	types, err := database.GetGameTypesForUser(r.Context(), middleware.GetSessionUserID(r))
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取游戏类型列表失败", err)
		return
	}

	utils.SuccessResponse(w, types)
}

// GetGameType 处理 GET /api/game-types/{gameTypeId}
func GetGameType(w http.ResponseWriter, r *http.Request) {
	gt := visibleGameType(w, r)
	if gt == nil {
		return
	}

	utils.SuccessResponse(w, gt)
}

// CreateGameType 返回 POST /api/game-types 处理器
// 引擎名称在落库前校验，未知引擎直接拒绝
func CreateGameType(registry *engine.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameTypeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			utils.ErrorResponse(w, http.StatusBadRequest, "游戏类型名称不能为空", nil)
			return
		}

		if req.ScoringConfig != nil {
			if _, err := registry.ForConfig(req.ScoringConfig); err != nil {
				utils.ErrorResponse(w, http.StatusBadRequest, "未知的计分引擎", err)
				return
			}
		}

		direction := req.ScoringDirection
		if direction == "" {
			direction = engine.DirectionHighWins
		}

		userID := middleware.GetSessionUserID(r)
		gt := &database.GameType{
			UserID:           &userID,
			Name:             req.Name,
			Description:      req.Description,
			ScoringDirection: direction,
			DefaultRounds:    req.DefaultRounds,
			ScoringConfig:    req.ScoringConfig,
		}

		if err := database.CreateGameType(r.Context(), gt); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "创建游戏类型失败", err)
			return
		}

		utils.JSONResponse(w, http.StatusCreated, gt)
	}
}

// UpdateGameType 返回 PUT /api/game-types/{gameTypeId} 处理器
// 系统类型只读，不允许修改
func UpdateGameType(registry *engine.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gt := visibleGameType(w, r)
		if gt == nil {
			return
		}
		if gt.IsSystem {
			utils.ErrorResponse(w, http.StatusForbidden, "系统游戏类型不可修改", nil)
			return
		}

		var req GameTypeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			utils.ErrorResponse(w, http.StatusBadRequest, "游戏类型名称不能为空", nil)
			return
		}

		if req.ScoringConfig != nil {
			if _, err := registry.ForConfig(req.ScoringConfig); err != nil {
				utils.ErrorResponse(w, http.StatusBadRequest, "未知的计分引擎", err)
				return
			}
		}

		gt.Name = req.Name
		gt.Description = req.Description
		if req.ScoringDirection != "" {
			gt.ScoringDirection = req.ScoringDirection
		}
		gt.DefaultRounds = req.DefaultRounds
		gt.ScoringConfig = req.ScoringConfig

		if err := database.UpdateGameType(r.Context(), gt); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "更新游戏类型失败", err)
			return
		}

		utils.SuccessResponse(w, gt)
	}
}

// DeleteGameType 处理 DELETE /api/game-types/{gameTypeId}
func DeleteGameType(w http.ResponseWriter, r *http.Request) {
	gt := visibleGameType(w, r)
	if gt == nil {
		return
	}
	if gt.IsSystem {
		utils.ErrorResponse(w, http.StatusForbidden, "系统游戏类型不可删除", nil)
		return
	}

	inUse, err := database.GameTypeInUse(r.Context(), gt.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if inUse {
		utils.ErrorResponse(w, http.StatusConflict, "游戏类型已被游戏使用，无法删除", nil)
		return
	}

	if err := database.DeleteGameType(r.Context(), gt.ID); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "删除游戏类型失败", err)
		return
	}

	utils.SuccessResponse(w, map[string]string{"message": "游戏类型已删除"})
}

// ListEngines 返回 GET /api/game-types/engines 处理器
// 列出全部计分引擎及其默认配置，供新建游戏类型时选择
func ListEngines(registry *engine.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var infos []EngineInfo
		for _, name := range registry.Known() {
			eng, err := registry.Resolve(name)
			if err != nil {
				utils.ErrorResponse(w, http.StatusInternalServerError, "解析引擎失败", err)
				return
			}

			cfg := eng.DefaultConfig()
			infos = append(infos, EngineInfo{
				Name:          name,
				DefaultConfig: cfg,
				Options:       eng.ConfigOptions(),
				Inputs:        eng.RequiredInputs(engine.Effective(&cfg, nil)),
			})
		}

		utils.SuccessResponse(w, infos)
	}
}

// GameTypeBids 处理 GET /api/game-types/{gameTypeId}/bids
// 返回该类型生效配置下可用的叫牌列表
func GameTypeBids(w http.ResponseWriter, r *http.Request) {
	gt := visibleGameType(w, r)
	if gt == nil {
		return
	}

	eff := engine.Effective(gt.ScoringConfig, nil)
	utils.SuccessResponse(w, engine.AvailableBids(eff))
}
