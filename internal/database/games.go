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

// GameFilter 游戏列表查询条件
type GameFilter struct {
	UserID string
	Status string // 为空表示全部状态
	Search string // 按名称模糊匹配
	Limit  int
	Offset int
}

func scanGame(row pgx.Row) (*Game, error) {
	var g Game
	var notes *string
	var configJSON []byte

	err := row.Scan(
		&g.ID, &g.UserID, &g.GameTypeID, &g.Name, &g.Status, &notes,
		&configJSON, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes != nil {
		g.Notes = *notes
	}
	if len(configJSON) > 0 {
		var ov engine.GameOverrides
		if err := json.Unmarshal(configJSON, &ov); err != nil {
			return nil, fmt.Errorf("解析游戏配置失败: %w", err)
		}
		g.GameConfig = &ov
	}
	return &g, nil
}

const gameColumns = `id, user_id, game_type_id, name, status, notes,
	game_config, completed_at, created_at, updated_at`

// GetGameByID 根据ID获取游戏
func GetGameByID(ctx context.Context, gameID int64) (*Game, error) {
	g, err := scanGame(DB.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE id = $1
	`, gameID))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// GetGames 按条件分页获取游戏列表
func GetGames(ctx context.Context, filter GameFilter) ([]Game, int, error) {
	where := "WHERE user_id = $1"
	args := []any{filter.UserID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	// 先查总数再查当前页
	var total int
	if err := DB.QueryRow(ctx, "SELECT COUNT(*) FROM games "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	rows, err := DB.Query(ctx, fmt.Sprintf(`
		SELECT `+gameColumns+`
		FROM games
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, 0, err
		}
		games = append(games, *g)
	}

	return games, total, rows.Err()
}

// CreateGame 创建新游戏
func CreateGame(ctx context.Context, g *Game) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Status == "" {
		g.Status = GameStatusActive
	}

	configJSON, err := marshalGameConfig(g.GameConfig)
	if err != nil {
		return err
	}

	return DB.QueryRow(ctx, `
		INSERT INTO games (user_id, game_type_id, name, status, notes,
			game_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, g.UserID, g.GameTypeID, g.Name, g.Status, g.Notes,
		configJSON, now, now).Scan(&g.ID)
}

// UpdateGame 更新游戏信息
func UpdateGame(ctx context.Context, g *Game) error {
	configJSON, err := marshalGameConfig(g.GameConfig)
	if err != nil {
		return err
	}

	_, err = DB.Exec(ctx, `
		UPDATE games
		SET name = $1, status = $2, notes = $3, game_config = $4,
			completed_at = $5, updated_at = $6
		WHERE id = $7
	`, g.Name, g.Status, g.Notes, configJSON, g.CompletedAt, time.Now(), g.ID)
	return err
}

// CompleteGame 将游戏标记为已完成
func CompleteGame(ctx context.Context, gameID int64) error {
	now := time.Now()
	_, err := DB.Exec(ctx, `
		UPDATE games
		SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3
	`, GameStatusCompleted, now, gameID)
	return err
}

// DeleteGame 删除游戏（回合、分数、参与者级联删除）
func DeleteGame(ctx context.Context, gameID int64) error {
	_, err := DB.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	return err
}

func marshalGameConfig(ov *engine.GameOverrides) ([]byte, error) {
	if ov == nil {
		return nil, nil
	}
	data, err := json.Marshal(ov)
	if err != nil {
		return nil, fmt.Errorf("序列化游戏配置失败: %w", err)
	}
	return data, nil
}
