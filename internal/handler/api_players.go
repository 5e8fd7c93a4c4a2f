package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/pkg/utils"
)

// PlayerRequest 创建/更新玩家请求
type PlayerRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	AvatarEmoji string `json:"avatarEmoji"`
}

// parseID 解析路径中的数字ID
func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// ownedPlayer 获取玩家并校验归属，失败时已写入响应
func ownedPlayer(w http.ResponseWriter, r *http.Request) *database.Player {
	playerID, ok := parseID(r, "playerId")
	if !ok {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的玩家ID", nil)
		return nil
	}

	player, err := database.GetPlayerByID(r.Context(), playerID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return nil
	}
	if player == nil || player.UserID != middleware.GetSessionUserID(r) {
		utils.ErrorResponse(w, http.StatusNotFound, "玩家不存在", nil)
		return nil
	}
	return player
}

// ListPlayers 处理 GET /api/players
func ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := database.GetPlayersByUser(r.Context(), middleware.GetSessionUserID(r))
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取玩家列表失败", err)
		return
	}

	utils.SuccessResponse(w, players)
}

// GetPlayer 处理 GET /api/players/{playerId}
func GetPlayer(w http.ResponseWriter, r *http.Request) {
	player := ownedPlayer(w, r)
	if player == nil {
		return
	}

	utils.SuccessResponse(w, player)
}

// CreatePlayer 处理 POST /api/players
func CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "玩家名称不能为空", nil)
		return
	}

	userID := middleware.GetSessionUserID(r)
	exists, err := database.PlayerNameExists(r.Context(), userID, req.Name, 0)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if exists {
		utils.ErrorResponse(w, http.StatusConflict, "已存在同名玩家", nil)
		return
	}

	player := &database.Player{
		UserID:      userID,
		Name:        req.Name,
		Color:       req.Color,
		AvatarEmoji: req.AvatarEmoji,
	}

	if err := database.CreatePlayer(r.Context(), player); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "创建玩家失败", err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, player)
}

// UpdatePlayer 处理 PUT /api/players/{playerId}
func UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	player := ownedPlayer(w, r)
	if player == nil {
		return
	}

	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "玩家名称不能为空", nil)
		return
	}

	exists, err := database.PlayerNameExists(r.Context(), player.UserID, req.Name, player.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if exists {
		utils.ErrorResponse(w, http.StatusConflict, "已存在同名玩家", nil)
		return
	}

	player.Name = req.Name
	player.Color = req.Color
	player.AvatarEmoji = req.AvatarEmoji

	if err := database.UpdatePlayer(r.Context(), player); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "更新玩家失败", err)
		return
	}

	utils.SuccessResponse(w, player)
}

// DeletePlayer 处理 DELETE /api/players/{playerId}
func DeletePlayer(w http.ResponseWriter, r *http.Request) {
	player := ownedPlayer(w, r)
	if player == nil {
		return
	}

	inUse, err := database.PlayerInUse(r.Context(), player.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if inUse {
		utils.ErrorResponse(w, http.StatusConflict, "玩家已参与游戏，无法删除", nil)
		return
	}

	if err := database.DeletePlayer(r.Context(), player.ID); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "删除玩家失败", err)
		return
	}

	utils.SuccessResponse(w, map[string]string{"message": "玩家已删除"})
}
