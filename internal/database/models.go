// Package database 提供数据库操作功能
package database

import (
	"time"

	"github.com/Noahbrat/scorepile/internal/engine"
)

// 游戏状态
const (
	GameStatusActive    = "active"
	GameStatusCompleted = "completed"
	GameStatusAbandoned = "abandoned"
)

// 回合状态
// playing: 已叫牌、墩数未录入；completed: 已计分，终态
const (
	RoundStatusPlaying   = "playing"
	RoundStatusCompleted = "completed"
)

// User 用户模型
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Player 玩家花名册条目（归属于某个用户）
type Player struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	AvatarEmoji string    `json:"avatarEmoji,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GameType 游戏类型（计分规则模板）
// 系统类型 UserID 为空、全体用户可见；用户类型归属创建者
type GameType struct {
	ID               int64                 `json:"id"`
	UserID           *string               `json:"userId,omitempty"`
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	ScoringDirection string                `json:"scoringDirection"`
	DefaultRounds    *int                  `json:"defaultRounds,omitempty"`
	ScoringConfig    *engine.ScoringConfig `json:"scoringConfig,omitempty"`
	IsSystem         bool                  `json:"isSystem"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// Game 一局游戏
type Game struct {
	ID          int64                 `json:"id"`
	UserID      string                `json:"userId"`
	GameTypeID  *int64                `json:"gameTypeId,omitempty"`
	Name        string                `json:"name"`
	Status      string                `json:"status"`
	Notes       string                `json:"notes,omitempty"`
	GameConfig  *engine.GameOverrides `json:"gameConfig,omitempty"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// GamePlayer 玩家与具体某局游戏的关联实体
// TotalScore 是缓存的累计分，始终等于该玩家全部分数行之和
type GamePlayer struct {
	ID         int64     `json:"id"`
	GameID     int64     `json:"gameId"`
	PlayerID   int64     `json:"playerId"`
	PlayerName string    `json:"playerName,omitempty"`
	Team       *int      `json:"team,omitempty"`
	TotalScore float64   `json:"totalScore"`
	FinalRank  *int      `json:"finalRank,omitempty"`
	IsWinner   bool      `json:"isWinner"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Round 回合模型
// RoundData 保存引擎的原始输入，完成后附带派生的 bid_made
type Round struct {
	ID                 int64            `json:"id"`
	GameID             int64            `json:"gameId"`
	RoundNumber        int              `json:"roundNumber"`
	Name               string           `json:"name,omitempty"`
	DealerGamePlayerID *int64           `json:"dealerGamePlayerId,omitempty"`
	Status             string           `json:"status"`
	RoundData          engine.RoundData `json:"roundData"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Score 单个玩家在单个回合的分数增量
type Score struct {
	ID           int64     `json:"id"`
	RoundID      int64     `json:"roundId"`
	GamePlayerID int64     `json:"gamePlayerId"`
	PlayerName   string    `json:"playerName,omitempty"`
	Points       float64   `json:"points"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RoundWithScores 回合及其分数行
type RoundWithScores struct {
	Round
	Scores []Score `json:"scores"`
}

// GameWithPlayers 游戏及参与玩家
type GameWithPlayers struct {
	Game
	GameTypeName string       `json:"gameTypeName,omitempty"`
	GamePlayers  []GamePlayer `json:"gamePlayers"`
}
