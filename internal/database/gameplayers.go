package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetGamePlayerByID 根据ID获取游戏参与者
func GetGamePlayerByID(ctx context.Context, gamePlayerID int64) (*GamePlayer, error) {
	var gp GamePlayer

	err := DB.QueryRow(ctx, `
		SELECT gp.id, gp.game_id, gp.player_id, p.name, gp.team,
			gp.total_score, gp.final_rank, gp.is_winner, gp.created_at, gp.updated_at
		FROM game_players gp
		JOIN players p ON p.id = gp.player_id
		WHERE gp.id = $1
	`, gamePlayerID).Scan(
		&gp.ID, &gp.GameID, &gp.PlayerID, &gp.PlayerName, &gp.Team,
		&gp.TotalScore, &gp.FinalRank, &gp.IsWinner, &gp.CreatedAt, &gp.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gp, nil
}

// GetGamePlayers 获取某局游戏的全部参与者
func GetGamePlayers(ctx context.Context, gameID int64) ([]GamePlayer, error) {
	rows, err := DB.Query(ctx, `
		SELECT gp.id, gp.game_id, gp.player_id, p.name, gp.team,
			gp.total_score, gp.final_rank, gp.is_winner, gp.created_at, gp.updated_at
		FROM game_players gp
		JOIN players p ON p.id = gp.player_id
		WHERE gp.game_id = $1
		ORDER BY gp.id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []GamePlayer
	for rows.Next() {
		var gp GamePlayer
		if err := rows.Scan(
			&gp.ID, &gp.GameID, &gp.PlayerID, &gp.PlayerName, &gp.Team,
			&gp.TotalScore, &gp.FinalRank, &gp.IsWinner, &gp.CreatedAt, &gp.UpdatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, gp)
	}

	return players, rows.Err()
}

// AddGamePlayer 向游戏添加参与者
func AddGamePlayer(ctx context.Context, gp *GamePlayer) error {
	now := time.Now()
	gp.CreatedAt = now
	gp.UpdatedAt = now

	return DB.QueryRow(ctx, `
		INSERT INTO game_players (game_id, player_id, team, total_score, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id
	`, gp.GameID, gp.PlayerID, gp.Team, now, now).Scan(&gp.ID)
}

// AssignTeam 设置参与者所属队伍
func AssignTeam(ctx context.Context, gamePlayerID int64, team *int) error {
	_, err := DB.Exec(ctx, `
		UPDATE game_players
		SET team = $1, updated_at = $2
		WHERE id = $3
	`, team, time.Now(), gamePlayerID)
	return err
}

// SetFinalStanding 写入终局名次与胜负标记
func SetFinalStanding(ctx context.Context, gamePlayerID int64, rank int, isWinner bool) error {
	_, err := DB.Exec(ctx, `
		UPDATE game_players
		SET final_rank = $1, is_winner = $2, updated_at = $3
		WHERE id = $4
	`, rank, isWinner, time.Now(), gamePlayerID)
	return err
}

// RemoveGamePlayer 从游戏中移除参与者
func RemoveGamePlayer(ctx context.Context, gamePlayerID int64) error {
	_, err := DB.Exec(ctx, `DELETE FROM game_players WHERE id = $1`, gamePlayerID)
	return err
}

// GamePlayerHasScores 检查参与者是否已有分数记录
func GamePlayerHasScores(ctx context.Context, gamePlayerID int64) (bool, error) {
	var count int
	err := DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM scores WHERE game_player_id = $1
	`, gamePlayerID).Scan(&count)
	return count > 0, err
}
