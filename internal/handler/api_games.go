package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/internal/scoring"
	"github.com/Noahbrat/scorepile/pkg/utils"
)

// CreateGameRequest 创建游戏请求
type CreateGameRequest struct {
	Name       string                `json:"name"`
	GameTypeID *int64                `json:"gameTypeId"`
	Notes      string                `json:"notes"`
	GameConfig *engine.GameOverrides `json:"gameConfig"`
	PlayerIDs  []int64               `json:"playerIds"`
}

// UpdateGameRequest 更新游戏请求
type UpdateGameRequest struct {
	Name       string                `json:"name"`
	Status     string                `json:"status"`
	Notes      string                `json:"notes"`
	GameConfig *engine.GameOverrides `json:"gameConfig"`
}

// AssignTeamsRequest 分配队伍请求，键为 game_player_id
type AssignTeamsRequest struct {
	Teams map[string]*int `json:"teams"`
}

// RoundRequest 保存/试算回合请求
type RoundRequest struct {
	Name               string           `json:"name"`
	DealerGamePlayerID *int64           `json:"dealerGamePlayerId"`
	RoundData          engine.RoundData `json:"roundData"`
}

// CompleteRoundRequest 完成回合请求
type CompleteRoundRequest struct {
	TricksWon map[string]int `json:"tricksWon"`
}

// GameListResponse 游戏列表响应
type GameListResponse struct {
	Games  []database.Game `json:"games"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ownedGame 获取游戏并校验归属，失败时已写入响应
func ownedGame(w http.ResponseWriter, r *http.Request) *database.Game {
	gameID, ok := parseID(r, "gameId")
	if !ok {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的游戏ID", nil)
		return nil
	}

	game, err := database.GetGameByID(r.Context(), gameID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return nil
	}
	if game == nil || game.UserID != middleware.GetSessionUserID(r) {
		utils.ErrorResponse(w, http.StatusNotFound, "游戏不存在", nil)
		return nil
	}
	return game
}

// gameTypeOf 加载游戏关联的游戏类型，可能为 nil
func gameTypeOf(r *http.Request, game *database.Game) (*database.GameType, error) {
	if game.GameTypeID == nil {
		return nil, nil
	}
	return database.GetGameTypeByID(r.Context(), *game.GameTypeID)
}

// writeRoundError 把回合流转错误映射为 HTTP 响应
func writeRoundError(w http.ResponseWriter, err error) {
	var verr *scoring.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.ValidationResponse(w, verr.Errors)
	case errors.Is(err, scoring.ErrRoundInProgress):
		utils.ErrorResponse(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, scoring.ErrRoundNotInGame):
		utils.ErrorResponse(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, scoring.ErrRoundNotPlaying), errors.Is(err, scoring.ErrCancelCompleted):
		utils.ErrorResponse(w, http.StatusConflict, err.Error(), nil)
	default:
		utils.ErrorResponse(w, http.StatusInternalServerError, "回合处理失败", err)
	}
}

// ListGames 处理 GET /api/games
// 支持 status、search、limit、offset 查询参数
func ListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	filter := database.GameFilter{
		UserID: middleware.GetSessionUserID(r),
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	}

	games, total, err := database.GetGames(r.Context(), filter)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取游戏列表失败", err)
		return
	}

	utils.SuccessResponse(w, GameListResponse{
		Games:  games,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetGame 处理 GET /api/games/{gameId}
// 返回游戏详情及参与玩家
func GetGame(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	players, err := database.GetGamePlayers(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
		return
	}

	resp := database.GameWithPlayers{Game: *game, GamePlayers: players}

	gt, err := gameTypeOf(r, game)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if gt != nil {
		resp.GameTypeName = gt.Name
	}

	utils.SuccessResponse(w, resp)
}

// CreateGame 处理 POST /api/games
// 创建游戏并一并登记参与玩家
func CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "游戏名称不能为空", nil)
		return
	}

	userID := middleware.GetSessionUserID(r)

	// 游戏类型必须对当前用户可见
	if req.GameTypeID != nil {
		gt, err := database.GetGameTypeByID(r.Context(), *req.GameTypeID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}
		if gt == nil || (!gt.IsSystem && (gt.UserID == nil || *gt.UserID != userID)) {
			utils.ErrorResponse(w, http.StatusBadRequest, "游戏类型不存在", nil)
			return
		}
	}

	// 参与玩家必须属于当前用户
	for _, playerID := range req.PlayerIDs {
		player, err := database.GetPlayerByID(r.Context(), playerID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}
		if player == nil || player.UserID != userID {
			utils.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("玩家 %d 不存在", playerID), nil)
			return
		}
	}

	game := &database.Game{
		UserID:     userID,
		GameTypeID: req.GameTypeID,
		Name:       req.Name,
		Notes:      req.Notes,
		GameConfig: req.GameConfig,
	}

	if err := database.CreateGame(r.Context(), game); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "创建游戏失败", err)
		return
	}

	for _, playerID := range req.PlayerIDs {
		gp := &database.GamePlayer{GameID: game.ID, PlayerID: playerID}
		if err := database.AddGamePlayer(r.Context(), gp); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "登记参与玩家失败", err)
			return
		}
	}

	utils.JSONResponse(w, http.StatusCreated, game)
}

// UpdateGame 处理 PUT /api/games/{gameId}
func UpdateGame(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	var req UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	if req.Name != "" {
		game.Name = strings.TrimSpace(req.Name)
	}
	if req.Status != "" {
		switch req.Status {
		case database.GameStatusActive, database.GameStatusCompleted, database.GameStatusAbandoned:
			game.Status = req.Status
		default:
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的游戏状态", nil)
			return
		}
	}
	game.Notes = req.Notes
	if req.GameConfig != nil {
		game.GameConfig = req.GameConfig
	}

	if err := database.UpdateGame(r.Context(), game); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "更新游戏失败", err)
		return
	}

	utils.SuccessResponse(w, game)
}

// DeleteGame 处理 DELETE /api/games/{gameId}
func DeleteGame(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	if err := database.DeleteGame(r.Context(), game.ID); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "删除游戏失败", err)
		return
	}

	utils.SuccessResponse(w, map[string]string{"message": "游戏已删除"})
}

// AssignTeams 处理 POST /api/games/{gameId}/assign-teams
func AssignTeams(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}
	if game.Status != database.GameStatusActive {
		utils.ErrorResponse(w, http.StatusConflict, "只能为进行中的游戏分配队伍", nil)
		return
	}

	var req AssignTeamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	players, err := database.GetGamePlayers(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
		return
	}

	byID := make(map[int64]bool, len(players))
	for _, gp := range players {
		byID[gp.ID] = true
	}

	for idStr, team := range req.Teams {
		gamePlayerID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || !byID[gamePlayerID] {
			utils.ErrorResponse(w, http.StatusBadRequest, "参与玩家 "+idStr+" 不属于本局游戏", nil)
			return
		}
		if err := database.AssignTeam(r.Context(), gamePlayerID, team); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "分配队伍失败", err)
			return
		}
	}

	players, err = database.GetGamePlayers(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
		return
	}

	utils.SuccessResponse(w, players)
}

// RemovePlayer 返回 DELETE /api/games/{gameId}/players/{gamePlayerId} 处理器
// 已有分数记录的参与者不允许移除
func RemovePlayer(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}
		if game.Status != database.GameStatusActive {
			utils.ErrorResponse(w, http.StatusConflict, "只能修改进行中的游戏", nil)
			return
		}

		gamePlayerID, ok := parseID(r, "gamePlayerId")
		if !ok {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的参与玩家ID", nil)
			return
		}
		if !gamePlayerInGame(w, r, game, gamePlayerID) {
			return
		}

		hasScores, err := database.GamePlayerHasScores(r.Context(), gamePlayerID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}
		if hasScores {
			utils.ErrorResponse(w, http.StatusConflict, "该参与者已有分数记录，无法移除", nil)
			return
		}

		if err := database.RemoveGamePlayer(r.Context(), gamePlayerID); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "移除参与者失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)
		utils.SuccessResponse(w, map[string]string{"message": "参与者已移除"})
	}
}

// RecalculateTotals 返回 POST /api/games/{gameId}/recalculate-totals 处理器
// 对全部参与者从分数明细重算累计分，用于修复历史数据
func RecalculateTotals(live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		players, err := database.GetGamePlayers(r.Context(), game.ID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
			return
		}

		for _, gp := range players {
			if err := database.RecalculateTotal(r.Context(), gp.ID); err != nil {
				utils.ErrorResponse(w, http.StatusInternalServerError, "重算累计分失败", err)
				return
			}
		}

		players, err = database.GetGamePlayers(r.Context(), game.ID)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)
		utils.SuccessResponse(w, players)
	}
}

// CompleteGame 处理 POST /api/games/{gameId}/complete
// 按累计分和计分方向写入终局名次与胜负标记
func CompleteGame(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	if game.Status == database.GameStatusCompleted {
		utils.ErrorResponse(w, http.StatusConflict, "游戏已完成", nil)
		return
	}

	// 存在进行中回合时不能终局
	playing, err := database.GetPlayingRound(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if playing != nil {
		utils.ErrorResponse(w, http.StatusConflict, scoring.ErrRoundInProgress.Error(), nil)
		return
	}

	direction := engine.DirectionHighWins
	gt, err := gameTypeOf(r, game)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}
	if gt != nil && gt.ScoringDirection != "" {
		direction = gt.ScoringDirection
	}

	players, err := database.GetGamePlayers(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
		return
	}

	for _, standing := range scoring.Standings(players, direction) {
		if err := database.SetFinalStanding(r.Context(), standing.GamePlayerID, standing.Rank, standing.IsWinner); err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "写入终局名次失败", err)
			return
		}
	}

	if err := database.CompleteGame(r.Context(), game.ID); err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "完成游戏失败", err)
		return
	}

	game, err = database.GetGameByID(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
		return
	}

	players, err = database.GetGamePlayers(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
		return
	}

	utils.SuccessResponse(w, database.GameWithPlayers{Game: *game, GamePlayers: players})
}

// CalculateRound 返回 POST /api/games/{gameId}/calculate-round 处理器
// 只试算不落库，供录入界面实时反馈
func CalculateRound(coordinator *scoring.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		var req RoundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		gt, err := gameTypeOf(r, game)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}

		preview, err := coordinator.Preview(game, gt, req.RoundData)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "试算失败", err)
			return
		}

		utils.SuccessResponse(w, preview)
	}
}

// SaveRound 返回 POST /api/games/{gameId}/save-round 处理器
func SaveRound(coordinator *scoring.Coordinator, live *LiveHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := ownedGame(w, r)
		if game == nil {
			return
		}

		var req RoundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		gt, err := gameTypeOf(r, game)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}

		round, scores, err := coordinator.SaveRound(r.Context(), game, gt, scoring.RoundInput{
			Name:               req.Name,
			DealerGamePlayerID: req.DealerGamePlayerID,
			Data:               req.RoundData,
		})
		if err != nil {
			writeRoundError(w, err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.JSONResponse(w, http.StatusCreated, database.RoundWithScores{Round: *round, Scores: scores})
	}
}

// CompleteRound 返回 POST /api/games/{gameId}/rounds/{roundId}/complete 处理器
func CompleteRound(coordinator *scoring.Coordinator, live *LiveHub) http.HandlerFunc {
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

		var req CompleteRoundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ErrorResponse(w, http.StatusBadRequest, "无效的请求格式", err)
			return
		}

		gt, err := gameTypeOf(r, game)
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "数据库错误", err)
			return
		}

		round, scores, err := coordinator.CompleteRound(r.Context(), game, gt, roundID, req.TricksWon)
		if err != nil {
			writeRoundError(w, err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.SuccessResponse(w, database.RoundWithScores{Round: *round, Scores: scores})
	}
}

// CancelRound 返回 POST /api/games/{gameId}/rounds/{roundId}/cancel 处理器
func CancelRound(coordinator *scoring.Coordinator, live *LiveHub) http.HandlerFunc {
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

		if err := coordinator.CancelRound(r.Context(), game, roundID); err != nil {
			writeRoundError(w, err)
			return
		}

		live.NotifyGame(r.Context(), game.ID)

		utils.SuccessResponse(w, map[string]string{"message": "回合已取消"})
	}
}

// ExportGame 处理 GET /api/games/{gameId}/export
// 导出游戏快照（游戏、玩家、回合、分数）为 ZIP
func ExportGame(w http.ResponseWriter, r *http.Request) {
	game := ownedGame(w, r)
	if game == nil {
		return
	}

	players, err := database.GetGamePlayers(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取参与玩家失败", err)
		return
	}
	rounds, err := database.GetRoundsByGame(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取回合列表失败", err)
		return
	}
	scores, err := database.GetScoresByGame(r.Context(), game.ID)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "获取分数列表失败", err)
		return
	}

	var entries []utils.FileEntry
	for _, part := range []struct {
		name string
		data any
	}{
		{"game.json", game},
		{"players.json", players},
		{"rounds.json", rounds},
		{"scores.json", scores},
	} {
		data, err := json.MarshalIndent(part.data, "", "  ")
		if err != nil {
			utils.ErrorResponse(w, http.StatusInternalServerError, "序列化导出数据失败", err)
			return
		}
		entries = append(entries, utils.FileEntry{Name: part.name, Data: data})
	}

	zipData, err := utils.CreateZip(entries)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "生成ZIP失败", err)
		return
	}

	filename := fmt.Sprintf("game-%d-%s.zip", game.ID, time.Now().Format("20060102"))
	utils.ZipResponse(w, filename, zipData)
}
