package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func scanRound(row pgx.Row) (*Round, error) {
	var r Round
	var name *string
	var dataJSON []byte

	err := row.Scan(
		&r.ID, &r.GameID, &r.RoundNumber, &name, &r.DealerGamePlayerID,
		&r.Status, &dataJSON, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name != nil {
		r.Name = *name
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &r.RoundData); err != nil {
			return nil, fmt.Errorf("解析回合数据失败: %w", err)
		}
	}
	return &r, nil
}

const roundColumns = `id, game_id, round_number, name, dealer_game_player_id,
	status, round_data, created_at, updated_at`

// GetRoundByID 根据ID获取回合
func GetRoundByID(ctx context.Context, roundID int64) (*Round, error) {
	r, err := scanRound(DB.QueryRow(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE id = $1
	`, roundID))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// GetRoundsByGame 获取某局游戏的全部回合，按回合号升序
func GetRoundsByGame(ctx context.Context, gameID int64) ([]Round, error) {
	rows, err := DB.Query(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE game_id = $1
		ORDER BY round_number
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *r)
	}

	return rounds, rows.Err()
}

// GetPlayingRound 获取游戏当前进行中的回合
// 部分唯一索引保证每局最多一个进行中回合
func GetPlayingRound(ctx context.Context, gameID int64) (*Round, error) {
	r, err := scanRound(DB.QueryRow(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE game_id = $1 AND status = $2
	`, gameID, RoundStatusPlaying))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// MaxRoundNumber 获取游戏已有的最大回合号，无回合返回 0
func MaxRoundNumber(ctx context.Context, gameID int64) (int, error) {
	var max int
	err := DB.QueryRow(ctx, `
		SELECT COALESCE(MAX(round_number), 0) FROM rounds WHERE game_id = $1
	`, gameID).Scan(&max)
	return max, err
}

// CreateRound 插入回合并写入分数行，单事务完成
// scores 为空时只插入回合（叫牌中的回合没有分数）
func CreateRound(ctx context.Context, r *Round, scores []Score) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	dataJSON, err := json.Marshal(r.RoundData)
	if err != nil {
		return fmt.Errorf("序列化回合数据失败: %w", err)
	}

	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO rounds (game_id, round_number, name, dealer_game_player_id,
			status, round_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, r.GameID, r.RoundNumber, r.Name, r.DealerGamePlayerID,
		r.Status, dataJSON, now, now).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("插入回合失败: %w", err)
	}

	if err := insertScoresTx(ctx, tx, r.ID, scores); err != nil {
		return err
	}
	if err := recalculateTotalsTx(ctx, tx, scoreGamePlayerIDs(scores)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FinishRound 将进行中的回合置为完成态并写入分数，单事务完成
func FinishRound(ctx context.Context, r *Round, scores []Score) error {
	r.UpdatedAt = time.Now()

	dataJSON, err := json.Marshal(r.RoundData)
	if err != nil {
		return fmt.Errorf("序列化回合数据失败: %w", err)
	}

	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE rounds
		SET status = $1, round_data = $2, updated_at = $3
		WHERE id = $4
	`, r.Status, dataJSON, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("更新回合失败: %w", err)
	}

	if err := insertScoresTx(ctx, tx, r.ID, scores); err != nil {
		return err
	}
	if err := recalculateTotalsTx(ctx, tx, scoreGamePlayerIDs(scores)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteRound 删除回合及其分数行，并重算受影响玩家的总分
func DeleteRound(ctx context.Context, roundID int64) error {
	tx, err := DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	// 删除前记下受影响的玩家
	rows, err := tx.Query(ctx, `
		SELECT DISTINCT game_player_id FROM scores WHERE round_id = $1
	`, roundID)
	if err != nil {
		return err
	}
	var affected []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		affected = append(affected, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM scores WHERE round_id = $1`, roundID); err != nil {
		return fmt.Errorf("删除分数失败: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rounds WHERE id = $1`, roundID); err != nil {
		return fmt.Errorf("删除回合失败: %w", err)
	}
	if err := recalculateTotalsTx(ctx, tx, affected); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetRoundWithScores 获取回合及其分数行
func GetRoundWithScores(ctx context.Context, roundID int64) (*RoundWithScores, error) {
	r, err := GetRoundByID(ctx, roundID)
	if err != nil || r == nil {
		return nil, err
	}

	scores, err := GetScoresByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	return &RoundWithScores{Round: *r, Scores: scores}, nil
}

// insertScoresTx 在事务内批量插入分数行
func insertScoresTx(ctx context.Context, tx pgx.Tx, roundID int64, scores []Score) error {
	now := time.Now()
	for i := range scores {
		s := &scores[i]
		s.RoundID = roundID
		s.CreatedAt = now
		s.UpdatedAt = now

		err := tx.QueryRow(ctx, `
			INSERT INTO scores (round_id, game_player_id, points, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, roundID, s.GamePlayerID, s.Points, s.Notes, now, now).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("插入分数失败: %w", err)
		}
	}
	return nil
}

// recalculateTotalsTx 在事务内重算玩家累计分
// 始终用 SUM 全量重算，不做增量更新
func recalculateTotalsTx(ctx context.Context, tx pgx.Tx, gamePlayerIDs []int64) error {
	for _, id := range gamePlayerIDs {
		_, err := tx.Exec(ctx, `
			UPDATE game_players
			SET total_score = COALESCE(
				(SELECT SUM(points) FROM scores WHERE game_player_id = $1), 0),
				updated_at = $2
			WHERE id = $1
		`, id, time.Now())
		if err != nil {
			return fmt.Errorf("重算累计分失败: %w", err)
		}
	}
	return nil
}

func scoreGamePlayerIDs(scores []Score) []int64 {
	seen := make(map[int64]bool, len(scores))
	var ids []int64
	for _, s := range scores {
		if !seen[s.GamePlayerID] {
			seen[s.GamePlayerID] = true
			ids = append(ids, s.GamePlayerID)
		}
	}
	return ids
}
