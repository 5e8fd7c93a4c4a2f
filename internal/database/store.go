package database

import (
	"context"
)

// RoundStore 回合流转所需的存储操作集合
// 供 scoring 包的协调器使用，空结构体转发到包级函数
type RoundStore struct{}

func (RoundStore) GamePlayers(ctx context.Context, gameID int64) ([]GamePlayer, error) {
	return GetGamePlayers(ctx, gameID)
}

func (RoundStore) PlayingRound(ctx context.Context, gameID int64) (*Round, error) {
	return GetPlayingRound(ctx, gameID)
}

func (RoundStore) RoundByID(ctx context.Context, roundID int64) (*Round, error) {
	return GetRoundByID(ctx, roundID)
}

func (RoundStore) MaxRoundNumber(ctx context.Context, gameID int64) (int, error) {
	return MaxRoundNumber(ctx, gameID)
}

func (RoundStore) CreateRound(ctx context.Context, r *Round, scores []Score) error {
	return CreateRound(ctx, r, scores)
}

func (RoundStore) FinishRound(ctx context.Context, r *Round, scores []Score) error {
	return FinishRound(ctx, r, scores)
}

func (RoundStore) DeleteRound(ctx context.Context, roundID int64) error {
	return DeleteRound(ctx, roundID)
}
