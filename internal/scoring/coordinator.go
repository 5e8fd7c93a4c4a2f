// Package scoring 负责回合生命周期的流转
// 引擎只做纯计算，本包把引擎结果落到回合与分数记录上
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
)

// 回合流转错误，错误文案直接返回给客户端
var (
	ErrRoundInProgress = errors.New("A round is already in progress. Complete or cancel it first.")
	ErrRoundNotPlaying = errors.New("Round is not in playing status")
	ErrRoundNotInGame  = errors.New("Round not found for this game")
	ErrCancelCompleted = errors.New("Only playing rounds can be cancelled")
)

// ValidationError 引擎校验失败，携带全部错误文案
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// Store 回合流转所需的存储操作
// 生产环境由 database.RoundStore 实现，测试用内存实现
type Store interface {
	GamePlayers(ctx context.Context, gameID int64) ([]database.GamePlayer, error)
	PlayingRound(ctx context.Context, gameID int64) (*database.Round, error)
	RoundByID(ctx context.Context, roundID int64) (*database.Round, error)
	MaxRoundNumber(ctx context.Context, gameID int64) (int, error)
	CreateRound(ctx context.Context, r *database.Round, scores []database.Score) error
	FinishRound(ctx context.Context, r *database.Round, scores []database.Score) error
	DeleteRound(ctx context.Context, roundID int64) error
}

// Coordinator 回合生命周期协调器
type Coordinator struct {
	store    Store
	registry *engine.Registry
}

// NewCoordinator 创建协调器
func NewCoordinator(store Store, registry *engine.Registry) *Coordinator {
	return &Coordinator{store: store, registry: registry}
}

// RoundInput 创建回合的输入
type RoundInput struct {
	Name               string
	DealerGamePlayerID *int64
	Data               engine.RoundData
}

// PreviewResult 回合试算结果
type PreviewResult struct {
	Result engine.Result `json:"result"`
	Valid  bool          `json:"valid"`
	Errors []string      `json:"errors,omitempty"`
}

// resolve 解析游戏对应的引擎和最终生效配置
func (c *Coordinator) resolve(game *database.Game, gameType *database.GameType) (engine.Engine, engine.EffectiveConfig, error) {
	var cfg *engine.ScoringConfig
	if gameType != nil {
		cfg = gameType.ScoringConfig
	}

	eng, err := c.registry.ForConfig(cfg)
	if err != nil {
		return nil, engine.EffectiveConfig{}, err
	}

	var ov *engine.GameOverrides
	if game != nil {
		ov = game.GameConfig
	}
	return eng, engine.Effective(cfg, ov), nil
}

// Preview 试算回合，不落库
// 校验失败时返回错误列表而非报错，供录入界面实时反馈
func (c *Coordinator) Preview(game *database.Game, gameType *database.GameType, data engine.RoundData) (*PreviewResult, error) {
	eng, eff, err := c.resolve(game, gameType)
	if err != nil {
		return nil, err
	}

	if errs := eng.Validate(data, eff); len(errs) > 0 {
		return &PreviewResult{Valid: false, Errors: errs}, nil
	}

	return &PreviewResult{Result: eng.Calculate(data, eff), Valid: true}, nil
}

// SaveRound 保存新回合
// 数据完整时一步到位计分落库；只有叫牌信息时创建进行中回合等待墩数；
// 两者都不满足时走完整校验把错误暴露出来
func (c *Coordinator) SaveRound(ctx context.Context, game *database.Game, gameType *database.GameType, input RoundInput) (*database.Round, []database.Score, error) {
	eng, eff, err := c.resolve(game, gameType)
	if err != nil {
		return nil, nil, err
	}

	// 每局同时只允许一个进行中回合
	playing, err := c.store.PlayingRound(ctx, game.ID)
	if err != nil {
		return nil, nil, err
	}
	if playing != nil {
		return nil, nil, ErrRoundInProgress
	}

	maxRound, err := c.store.MaxRoundNumber(ctx, game.ID)
	if err != nil {
		return nil, nil, err
	}

	round := &database.Round{
		GameID:             game.ID,
		RoundNumber:        maxRound + 1,
		Name:               input.Name,
		DealerGamePlayerID: input.DealerGamePlayerID,
		RoundData:          input.Data,
	}

	data := input.Data
	hasResults := len(data.TricksWon) > 0 || len(data.Scores) > 0

	switch {
	case hasResults:
		// 一步完成：校验、计分、落库
		if errs := eng.Validate(data, eff); len(errs) > 0 {
			return nil, nil, &ValidationError{Errors: errs}
		}

		result := eng.Calculate(data, eff)
		if data.BidKey != "" {
			made := result.BidMade
			round.RoundData.BidMade = &made
		}

		scores, err := c.mapScores(ctx, game.ID, result, eff)
		if err != nil {
			return nil, nil, err
		}

		round.Status = database.RoundStatusCompleted
		if err := c.store.CreateRound(ctx, round, scores); err != nil {
			return nil, nil, err
		}
		return round, scores, nil

	case data.BidderTeam != "" && data.BidKey != "":
		// 仅有叫牌信息：创建进行中回合，墩数后补
		if errs := c.validateBid(data, eff); len(errs) > 0 {
			return nil, nil, &ValidationError{Errors: errs}
		}

		round.Status = database.RoundStatusPlaying
		if err := c.store.CreateRound(ctx, round, nil); err != nil {
			return nil, nil, err
		}
		return round, nil, nil

	default:
		errs := eng.Validate(data, eff)
		if len(errs) == 0 {
			errs = []string{"Round data is required"}
		}
		return nil, nil, &ValidationError{Errors: errs}
	}
}

// CompleteRound 为进行中回合补录墩数并完成计分
func (c *Coordinator) CompleteRound(ctx context.Context, game *database.Game, gameType *database.GameType, roundID int64, tricksWon map[string]int) (*database.Round, []database.Score, error) {
	eng, eff, err := c.resolve(game, gameType)
	if err != nil {
		return nil, nil, err
	}

	round, err := c.store.RoundByID(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}
	if round == nil || round.GameID != game.ID {
		return nil, nil, ErrRoundNotInGame
	}
	if round.Status != database.RoundStatusPlaying {
		return nil, nil, ErrRoundNotPlaying
	}

	data := round.RoundData
	data.TricksWon = tricksWon

	if errs := eng.Validate(data, eff); len(errs) > 0 {
		return nil, nil, &ValidationError{Errors: errs}
	}

	result := eng.Calculate(data, eff)
	if data.BidKey != "" {
		made := result.BidMade
		data.BidMade = &made
	}

	scores, err := c.mapScores(ctx, game.ID, result, eff)
	if err != nil {
		return nil, nil, err
	}

	round.RoundData = data
	round.Status = database.RoundStatusCompleted
	if err := c.store.FinishRound(ctx, round, scores); err != nil {
		return nil, nil, err
	}
	return round, scores, nil
}

// CancelRound 取消进行中的回合
// 已完成的回合不可取消，只能删除（删除会回滚分数）
func (c *Coordinator) CancelRound(ctx context.Context, game *database.Game, roundID int64) error {
	round, err := c.store.RoundByID(ctx, roundID)
	if err != nil {
		return err
	}
	if round == nil || round.GameID != game.ID {
		return ErrRoundNotInGame
	}
	if round.Status != database.RoundStatusPlaying {
		return ErrCancelCompleted
	}

	return c.store.DeleteRound(ctx, roundID)
}

// validateBid 只校验叫牌字段，不要求墩数
// 进行中回合的墩数尚不存在，完整校验会误报
func (c *Coordinator) validateBid(data engine.RoundData, eff engine.EffectiveConfig) []string {
	var errs []string
	if data.BidderTeam == "" {
		errs = append(errs, "Bidding team is required")
	}
	if data.BidKey == "" {
		errs = append(errs, "Bid is required")
		return errs
	}

	if engine.BidValue(data.BidKey, eff.BidTable) == 0 {
		errs = append(errs, "Invalid bid")
	}
	if data.BidKey == engine.BidMisere && !eff.MisereEnabled {
		errs = append(errs, "Misère is not enabled for this game")
	}
	if data.BidKey == engine.BidOpenMisere && !eff.OpenMisereEnabled {
		errs = append(errs, "Open Misère is not enabled for this game")
	}
	return errs
}

// mapScores 把引擎结果映射为分数记录
// 组队模式下键为 team_N，展开到该队全部成员；个人模式键为 game_player_id
func (c *Coordinator) mapScores(ctx context.Context, gameID int64, result engine.Result, eff engine.EffectiveConfig) ([]database.Score, error) {
	if len(result.Scores) == 0 {
		return nil, nil
	}

	players, err := c.store.GamePlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var scores []database.Score

	if eff.Teams.Enabled {
		for key, points := range result.Scores {
			teamStr, ok := strings.CutPrefix(key, "team_")
			if !ok {
				return nil, &ValidationError{Errors: []string{fmt.Sprintf("Invalid team score key: %s", key)}}
			}
			team, err := strconv.Atoi(teamStr)
			if err != nil {
				return nil, &ValidationError{Errors: []string{fmt.Sprintf("Invalid team score key: %s", key)}}
			}

			matched := false
			for _, gp := range players {
				if gp.Team != nil && *gp.Team == team {
					scores = append(scores, database.Score{GamePlayerID: gp.ID, Points: points})
					matched = true
				}
			}
			if !matched {
				return nil, &ValidationError{Errors: []string{fmt.Sprintf("No players assigned to team %d", team)}}
			}
		}
		return sortScores(scores), nil
	}

	byID := make(map[int64]bool, len(players))
	for _, gp := range players {
		byID[gp.ID] = true
	}

	for key, points := range result.Scores {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || !byID[id] {
			return nil, &ValidationError{Errors: []string{fmt.Sprintf("Score key %s does not match a player in this game", key)}}
		}
		scores = append(scores, database.Score{GamePlayerID: id, Points: points})
	}
	return sortScores(scores), nil
}

// sortScores 按玩家ID排序，保证落库顺序稳定
func sortScores(scores []database.Score) []database.Score {
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].GamePlayerID < scores[j].GamePlayerID
	})
	return scores
}
