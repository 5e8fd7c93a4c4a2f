package database

import (
	"context"
)

// UserStats 用户计分统计信息
type UserStats struct {
	TotalGames     int `json:"totalGames"`
	ActiveGames    int `json:"activeGames"`
	CompletedGames int `json:"completedGames"`
	TotalPlayers   int `json:"totalPlayers"`
	TotalRounds    int `json:"totalRounds"`
	GameTypes      int `json:"gameTypes"`
}

// GetUserStats 获取用户的统计信息
func GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	var stats UserStats

	err := DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM games WHERE user_id = $1),
			(SELECT COUNT(*) FROM games WHERE user_id = $1 AND status = $2),
			(SELECT COUNT(*) FROM games WHERE user_id = $1 AND status = $3),
			(SELECT COUNT(*) FROM players WHERE user_id = $1),
			(SELECT COUNT(*) FROM rounds r JOIN games g ON g.id = r.game_id WHERE g.user_id = $1),
			(SELECT COUNT(*) FROM game_types WHERE user_id = $1)
	`, userID, GameStatusActive, GameStatusCompleted).Scan(
		&stats.TotalGames, &stats.ActiveGames, &stats.CompletedGames,
		&stats.TotalPlayers, &stats.TotalRounds, &stats.GameTypes,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
