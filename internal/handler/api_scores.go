package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/pkg/utils"
)

// ScoreRequest 创建/更新分数请求
type ScoreRequest struct {
	RoundID      int64   `json:"roundId"`
	GamePlayerID int64   `json:"gamePlayerId"`
	Points       float64 `json:"points"`
	Notes        string  `json:"notes"`
}

// BulkScoresRequest 批量录入分数请求
type BulkScoresRequest struct {
	RoundID int64          `json:"roundId"`
	Scores  []ScoreRequest `json:"scores"`
}

// roundInGame 校验回合属于本局游戏，失败时已写入响应
func roundInGame(w http.ResponseWriter, r *http.Request, game *database.Game, roundID int64) bool {
	round, err := database.GetRoundByID(r.Context(), roundID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return false
	}
	if round == nil || round.GameID != game.ID {
		utils.ErrorResponse(w, http.StatusNotFound, "回合不存在", nil)
		return false
	}
	return true
}

// gamePlayerInGame 校验参与者属于本局游戏，失败时已写入响应
func gamePlayerInGame(w http.ResponseWriter, r *http.Request, game *database.Game, gamePlayerID int64) bool {
	gp, err := database.GetGamePlayerByID(r.Context(), gamePlayerID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return false
	}
	if gp == nil || gp.GameID != game.ID {
		utils.ErrorResponse(w, http.StatusBadRequest, "参与玩家不属于本局游戏", nil)
		return false
	}
	return true
}

// ListScores 处理 GET /api/games/{gameId}/scores
// 可选 round_id 参数按回合过滤
func ListScores(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	if raw := r.URL.Query().Get("round_id"); raw != "" {
		roundID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的回合ID", err)
			return
		}
		if !roundInGame(w, r, game, roundID) {
			return
		}
		scores, err := database.GetScoresByRound(r.Context(), roundID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "获取分数列表失败", err)
			return
		}
		utils.SuccessResponse(w, scores)
		return
	}

	scores, err := database.GetScoresByGame(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取分数列表失败", err)
		return
	}

	utils.SuccessResponse(w, scores)
}

// CreateScore 返回 POST /api/games/{gameId}/scores 处理器
// 手工补录分数，累计分随之重算
func CreateScore(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		var req ScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		if !roundInGame(w, r, game, req.RoundID) || !gamePlayerInGame(w, r, game, req.GamePlayerID) {
			return
		}

		score := &database.Score{
			RoundID:      req.RoundID,
			GamePlayerID: req.GamePlayerID,
			Points:       req.Points,
			Notes:        req.Notes,
		}

		if err := database.CreateScore(r.Context(), score); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "创建分数失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.JSONResponse(w, http.StatusCreated, score)
	}
}

// CreateScoresBulk 返回 POST /api/games/{gameId}/scores/bulk 处理器
// 整回合的分数一次录入，单事务落库
func CreateScoresBulk(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		var req BulkScoresRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		if len(req.Scores) == 0 {
			utils.ErrorResponse(w, http.StatusBadRequest, "分数列表不能为空", nil)
			return
		}
		if !roundInGame(w, r, game, req.RoundID) {
			return
		}

		scores := make([]database.Score, 0, len(req.Scores))
		for _, s := range req.Scores {
			if !gamePlayerInGame(w, r, game, s.GamePlayerID) {
				return
			}
			scores = append(scores, database.Score{
				GamePlayerID: s.GamePlayerID,
				Points:       s.Points,
				Notes:        s.Notes,
			})
		}

		if err := database.CreateScores(r.Context(), req.RoundID, scores); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "批量创建分数失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.JSONResponse(w, http.StatusCreated, scores)
	}
}

// UpdateScore 返回 PUT /api/games/{gameId}/scores/{scoreId} 处理器
func UpdateScore(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		scoreID, ok := parseID(r, "scoreId")
		if !ok {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的分数ID", nil)
			return
		}

		score, err := database.GetScoreByID(r.Context(), scoreID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}
		if score == nil || !roundInGame(w, r, game, score.RoundID) {
			if score == nil {
				utils.ErrorResponse(w, http.StatusNotFound, "分数不存在", nil)
			}
			return
		}

		var req ScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		score.Points = req.Points
		score.Notes = req.Notes

		if err := database.UpdateScore(r.Context(), score); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "更新分数失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.SuccessResponse(w, score)
	}
}

// DeleteScore 返回 DELETE /api/games/{gameId}/scores/{scoreId} 处理器
func DeleteScore(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		scoreID, ok := parseID(r, "scoreId")
		if !ok {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的分数ID", nil)
			return
		}

		score, err := database.GetScoreByID(r.Context(), scoreID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}
		if score == nil || !roundInGame(w, r, game, score.RoundID) {
			if score == nil {
				utils.ErrorResponse(w, http.StatusNotFound, "分数不存在", nil)
			}
			return
		}

		if err := database.DeleteScore(r.Context(), score.ID, score.GamePlayerID); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "删除分数失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.SuccessResponse(w, map[string]string{"message": "分数已删除"})
	}
}
