package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetPlayerByID 根据ID获取玩家
func GetPlayerByID(ctx context.Context, playerID int64) (*Player, error) {
	var p Player
	var color, avatar *string

	err := DB.QueryRow(ctx, `
		SELECT id, user_id, name, color, avatar_emoji, created_at, updated_at
		FROM players
		WHERE id = $1
	`, playerID).Scan(
		&p.ID, &p.UserID, &p.Name, &color, &avatar, &p.CreatedAt, &p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if color != nil {
		p.Color = *color
	}
	if avatar != nil {
		p.AvatarEmoji = *avatar
	}
	return &p, nil
}

// GetPlayersByUser 获取用户的全部玩家
func GetPlayersByUser(ctx context.Context, userID string) ([]Player, error) {
	rows, err := DB.Query(ctx, `
		SELECT id, user_id, name, color, avatar_emoji, created_at, updated_at
		FROM players
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		var color, avatar *string

		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &color, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}

		if color != nil {
			p.Color = *color
		}
		if avatar != nil {
			p.AvatarEmoji = *avatar
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// CreatePlayer 创建新玩家
func CreatePlayer(ctx context.Context, p *Player) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	return DB.QueryRow(ctx, `
		INSERT INTO players (user_id, name, color, avatar_emoji, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.UserID, p.Name, p.Color, p.AvatarEmoji, now, now).Scan(&p.ID)
}

// UpdatePlayer 更新玩家信息
func UpdatePlayer(ctx context.Context, p *Player) error {
	_, err := DB.Exec(ctx, `
		UPDATE players
		SET name = $1, color = $2, avatar_emoji = $3, updated_at = $4
		WHERE id = $5
	`, p.Name, p.Color, p.AvatarEmoji, time.Now(), p.ID)
	return err
}

// DeletePlayer 删除玩家
func DeletePlayer(ctx context.Context, playerID int64) error {
	_, err := DB.Exec(ctx, `DELETE FROM players WHERE id = $1`, playerID)
	return err
}

// PlayerInUse 检查玩家是否被任何游戏引用
// 被引用的玩家不允许删除（外键为 RESTRICT，先查询给出友好错误）
func PlayerInUse(ctx context.Context, playerID int64) (bool, error) {
	var count int
	err := DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM game_players WHERE player_id = $1
	`, playerID).Scan(&count)
	return count > 0, err
}

// PlayerNameExists 检查同一用户下是否已存在同名玩家
// excludeID 用于更新时排除自身
func PlayerNameExists(ctx context.Context, userID, name string, excludeID int64) (bool, error) {
	var count int
	err := DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM players WHERE user_id = $1 AND name = $2 AND id != $3
	`, userID, name, excludeID).Scan(&count)
	return count > 0, err
}
