package handler

import (
	"net/http"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/pkg/utils"
)

// ListRounds 处理 GET /api/games/{gameId}/rounds
// 返回回合及分数行
func ListRounds(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	rounds, err := database.GetRoundsByGame(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取回合列表失败", err)
		return
	}

	result := make([]database.RoundWithScores, 0, len(rounds))
	for _, round := range rounds {
		scores, err := database.GetScoresByRound(r.Context(), round.ID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "获取分数失败", err)
			return
		}
		result = append(result, database.RoundWithScores{Round: round, Scores: scores})
	}

	utils.SuccessResponse(w, result)
}

// GetRound 处理 GET /api/games/{gameId}/rounds/{roundId}
func GetRound(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	roundID, ok := parseID(r, "roundId")
	if !ok {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的回合ID", nil)
		return
	}

	round, err := database.GetRoundWithScores(r.Context(), roundID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if round == nil || round.GameID != game.ID {
		utils.ErrorResponse(w, http.StatusNotFound, "回合不存在", nil)
		return
	}

	utils.SuccessResponse(w, round)
}

// DeleteRound 返回 DELETE /api/games/{gameId}/rounds/{roundId} 处理器
// 删除回合会连带删除分数行并重算累计分
func DeleteRound(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		roundID, ok := parseID(r, "roundId")
		if !ok {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的回合ID", nil)
			return
		}

		round, err := database.GetRoundByID(r.Context(), roundID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}
		if round == nil || round.GameID != game.ID {
			utils.ErrorResponse(w, http.StatusNotFound, "回合不存在", nil)
			return
		}

		if err := database.DeleteRound(r.Context(), roundID); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "删除回合失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.SuccessResponse(w, map[string]string{"message": "回合已删除"})
	}
}
