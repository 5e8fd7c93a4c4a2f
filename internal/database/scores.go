package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetScoreByID 根据ID获取分数记录
func GetScoreByID(ctx context.Context, scoreID int64) (*Score, error) {
	var s Score
	var notes *string

	err := DB.QueryRow(ctx, `
		SELECT s.id, s.round_id, s.game_player_id, p.name, s.points, s.notes,
			s.created_at, s.updated_at
		FROM scores s
		JOIN game_players gp ON gp.id = s.game_player_id
		JOIN players p ON p.id = gp.player_id
		WHERE s.id = $1
	`, scoreID).Scan(
		&s.ID, &s.RoundID, &s.GamePlayerID, &s.PlayerName, &s.Points, &notes,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if notes != nil {
		s.Notes = *notes
	}
	return &s, nil
}

// GetScoresByRound 获取某回合的全部分数行
func GetScoresByRound(ctx context.Context, roundID int64) ([]Score, error) {
	rows, err := DB.Query(ctx, `
		SELECT s.id, s.round_id, s.game_player_id, p.name, s.points, s.notes,
			s.created_at, s.updated_at
		FROM scores s
		JOIN game_players gp ON gp.id = s.game_player_id
		JOIN players p ON p.id = gp.player_id
		WHERE s.round_id = $1
		ORDER BY s.game_player_id
	`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScores(rows)
}

// GetScoresByGame 获取某局游戏的全部分数行，按回合号排序
func GetScoresByGame(ctx context.Context, gameID int64) ([]Score, error) {
	rows, err := DB.Query(ctx, `
		SELECT s.id, s.round_id, s.game_player_id, p.name, s.points, s.notes,
			s.created_at, s.updated_at
		FROM scores s
		JOIN rounds r ON r.id = s.round_id
		JOIN game_players gp ON gp.id = s.game_player_id
		JOIN players p ON p.id = gp.player_id
		WHERE r.game_id = $1
		ORDER BY r.round_number, s.game_player_id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScores(rows)
}

func collectScores(rows pgx.Rows) ([]Score, error) {
	var scores []Score
	for rows.Next() {
		var s Score
		var notes *string

		if err := rows.Scan(
			&s.ID, &s.RoundID, &s.GamePlayerID, &s.PlayerName, &s.Points, &notes,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if notes != nil {
			s.Notes = *notes
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// CreateScore 插入单条分数并重算累计分
func CreateScore(ctx context.Context, s *Score) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO scores (round_id, game_player_id, points, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.RoundID, s.GamePlayerID, s.Points, s.Notes, now, now).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("插入分数失败: %w", err)
	}

	if err := recalculateTotalsTx(ctx, tx, []int64{s.GamePlayerID}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateScore 更新分数并重算累计分
func UpdateScore(ctx context.Context, s *Score) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE scores
		SET points = $1, notes = $2, updated_at = $3
		WHERE id = $4
	`, s.Points, s.Notes, time.Now(), s.ID)
	if err != nil {
		return fmt.Errorf("更新分数失败: %w", err)
	}

	if err := recalculateTotalsTx(ctx, tx, []int64{s.GamePlayerID}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteScore 删除分数并重算累计分
func DeleteScore(ctx context.Context, scoreID, gamePlayerID int64) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scores WHERE id = $1`, scoreID); err != nil {
		return fmt.Errorf("删除分数失败: %w", err)
	}

	if err := recalculateTotalsTx(ctx, tx, []int64{gamePlayerID}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateScores 批量插入分数并重算累计分，单事务完成
func CreateScores(ctx context.Context, roundID int64, scores []Score) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertScoresTx(ctx, tx, roundID, scores); err != nil {
		return err
	}
	if err := recalculateTotalsTx(ctx, tx, scoreGamePlayerIDs(scores)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecalculateTotal 重算单个参与者的累计分
func RecalculateTotal(ctx context.Context, gamePlayerID int64) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := recalculateTotalsTx(ctx, tx, []int64{gamePlayerID}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
