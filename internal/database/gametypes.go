package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Noahbrat/scorepile/internal/engine"
)

// scanGameType 扫描单行游戏类型
// scoring_config 为 JSONB 列，需单独反序列化
func scanGameType(row pgx.Row) (*GameType, error) {
	var gt GameType
	var description *string
	var configJSON []byte

	err := row.Scan(
		&gt.ID, &gt.UserID, &gt.Name, &description, &gt.ScoringDirection,
		&gt.DefaultRounds, &configJSON, &gt.IsSystem, &gt.CreatedAt, &gt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		gt.Description = *description
	}
	if len(configJSON) > 0 {
		var cfg engine.ScoringConfig
		if err := json.Unmarshal(configJSON, &cfg); err != nil {
			return nil, fmt.Errorf("解析计分配置失败: %w", err)
		}
		gt.ScoringConfig = &cfg
	}
	return &gt, nil
}

const gameTypeColumns = `id, user_id, name, description, scoring_direction,
	default_rounds, scoring_config, is_system, created_at, updated_at`

// GetGameTypeByID 根据ID获取游戏类型
func GetGameTypeByID(ctx context.Context, gameTypeID int64) (*GameType, error) {
	gt, err := scanGameType(DB.QueryRow(ctx, `
		SELECT `+gameTypeColumns+`
		FROM game_types
		WHERE id = $1
	`, gameTypeID))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return gt, err
}

// GetGameTypesForUser 获取用户可见的游戏类型（系统类型 + 自建类型）
func GetGameTypesForUser(ctx context.Context, userID string) ([]GameType, error) {
	rows, err := DB.Query(ctx, `
		SELECT `+gameTypeColumns+`
		FROM game_types
		WHERE is_system = TRUE OR user_id = $1
		ORDER BY is_system DESC, name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []GameType
	for rows.Next() {
		gt, err := scanGameType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *gt)
	}

	return types, rows.Err()
}

// CreateGameType 创建用户自定义游戏类型
func CreateGameType(ctx context.Context, gt *GameType) error {
	now := time.Now()
	gt.CreatedAt = now
	gt.UpdatedAt = now

	configJSON, err := marshalScoringConfig(gt.ScoringConfig)
	if err != nil {
		return err
	}

	return DB.QueryRow(ctx, `
		INSERT INTO game_types (user_id, name, description, scoring_direction,
			default_rounds, scoring_config, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, gt.UserID, gt.Name, gt.Description, gt.ScoringDirection,
		gt.DefaultRounds, configJSON, gt.IsSystem, now, now).Scan(&gt.ID)
}

// UpdateGameType 更新游戏类型
func UpdateGameType(ctx context.Context, gt *GameType) error {
	configJSON, err := marshalScoringConfig(gt.ScoringConfig)
	if err != nil {
		return err
	}

	_, err = DB.Exec(ctx, `
		UPDATE game_types
		SET name = $1, description = $2, scoring_direction = $3,
			default_rounds = $4, scoring_config = $5, updated_at = $6
		WHERE id = $7
	`, gt.Name, gt.Description, gt.ScoringDirection,
		gt.DefaultRounds, configJSON, time.Now(), gt.ID)
	return err
}

// DeleteGameType 删除游戏类型
func DeleteGameType(ctx context.Context, gameTypeID int64) error {
	_, err := DB.Exec(ctx, `DELETE FROM game_types WHERE id = $1`, gameTypeID)
	return err
}

// GameTypeInUse 检查游戏类型是否被任何游戏引用
func GameTypeInUse(ctx context.Context, gameTypeID int64) (bool, error) {
	var count int
	err := DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM games WHERE game_type_id = $1
	`, gameTypeID).Scan(&count)
	return count > 0, err
}

func marshalScoringConfig(cfg *engine.ScoringConfig) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("序列化计分配置失败: %w", err)
	}
	return data, nil
}
