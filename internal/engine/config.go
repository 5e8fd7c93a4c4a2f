package engine

// 引擎名称
const (
	EngineSimple      = "simple"
	EngineFiveHundred = "five_hundred"
)

// 计分方向
const (
	DirectionHighWins = "high_wins"
	DirectionLowWins  = "low_wins"
)

// TeamConfig 组队配置
type TeamConfig struct {
	Enabled bool `json:"enabled"`
	Size    int  `json:"size,omitempty"`
}

// ScoringRules 计分规则常量（信息性字段，供前端展示规则说明）
type ScoringRules struct {
	BidWon           string `json:"bid_won"`
	BidLost          string `json:"bid_lost"`
	OpponentPerTrick int    `json:"opponent_per_trick"`
}

// OptionChoice 选项可选值
type OptionChoice struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// ConfigOption 引擎可定制选项的描述
type ConfigOption struct {
	Key     string         `json:"key"`
	Label   string         `json:"label"`
	Type    string         `json:"type"`
	Choices []OptionChoice `json:"choices,omitempty"`
	Default any            `json:"default,omitempty"`
}

// ScoringConfig 游戏类型级计分配置
// 附加到游戏类型后不再修改，存储为 game_types.scoring_config JSON
type ScoringConfig struct {
	Engine           string         `json:"engine"`
	ScoringDirection string         `json:"scoring_direction,omitempty"`
	WinCondition     string         `json:"win_condition,omitempty"`
	TargetScore      int            `json:"target_score,omitempty"`
	LoseScore        int            `json:"lose_score,omitempty"`
	TrackDealer      bool           `json:"track_dealer,omitempty"`
	Teams            TeamConfig     `json:"teams"`
	Options          []ConfigOption `json:"options,omitempty"`
	BidTable         map[string]int `json:"bid_table,omitempty"`
	ScoringRules     *ScoringRules  `json:"scoring_rules,omitempty"`
}

// GameOverrides 游戏级配置覆盖（部分字段）
// 存储为 games.game_config JSON，合并时游戏级的值优先
type GameOverrides struct {
	BidTable          map[string]int `json:"bid_table,omitempty"`
	MisereEnabled     *bool          `json:"misere_enabled,omitempty"`
	OpenMisereEnabled *bool          `json:"open_misere_enabled,omitempty"`
	MinBid            *int           `json:"min_bid,omitempty"`
	KittySize         *int           `json:"kitty_size,omitempty"`
}

// EffectiveConfig 合并后的最终配置，回合求值时传给引擎
type EffectiveConfig struct {
	Engine            string
	ScoringDirection  string
	Teams             TeamConfig
	TrackDealer       bool
	BidTable          map[string]int
	MisereEnabled     bool
	OpenMisereEnabled bool
	MinBid            int
	KittySize         int
}

// 选项键
const (
	OptionMisereEnabled     = "misere_enabled"
	OptionOpenMisereEnabled = "open_misere_enabled"
	OptionMinBid            = "min_bid"
	OptionKittySize         = "kitty_size"
)

// 引擎内置的选项默认值（配置未指定时的兜底）
const (
	defaultMinBid    = 6
	defaultKittySize = 3
)

// Effective 计算最终生效配置
// 解析顺序：游戏级覆盖 > 游戏类型选项默认值 > 引擎内置默认值
// cfg 为 nil 表示游戏类型没有计分配置，此时使用简单引擎
func Effective(cfg *ScoringConfig, ov *GameOverrides) EffectiveConfig {
	eff := EffectiveConfig{
		Engine:            EngineSimple,
		ScoringDirection:  DirectionHighWins,
		MisereEnabled:     true,
		OpenMisereEnabled: true,
		MinBid:            defaultMinBid,
		KittySize:         defaultKittySize,
	}

	if cfg != nil {
		if cfg.Engine != "" {
			eff.Engine = cfg.Engine
		}
		if cfg.ScoringDirection != "" {
			eff.ScoringDirection = cfg.ScoringDirection
		}
		eff.Teams = cfg.Teams
		eff.TrackDealer = cfg.TrackDealer
		eff.BidTable = cfg.BidTable

		// 游戏类型的选项默认值
		if v, ok := cfg.optionBool(OptionMisereEnabled); ok {
			eff.MisereEnabled = v
		}
		if v, ok := cfg.optionBool(OptionOpenMisereEnabled); ok {
			eff.OpenMisereEnabled = v
		}
		if v, ok := cfg.optionInt(OptionMinBid); ok {
			eff.MinBid = v
		}
		if v, ok := cfg.optionInt(OptionKittySize); ok {
			eff.KittySize = v
		}
	}

	if ov != nil {
		if ov.BidTable != nil {
			eff.BidTable = ov.BidTable
		}
		if ov.MisereEnabled != nil {
			eff.MisereEnabled = *ov.MisereEnabled
		}
		if ov.OpenMisereEnabled != nil {
			eff.OpenMisereEnabled = *ov.OpenMisereEnabled
		}
		if ov.MinBid != nil {
			eff.MinBid = *ov.MinBid
		}
		if ov.KittySize != nil {
			eff.KittySize = *ov.KittySize
		}
	}

	return eff
}

// optionBool 查找布尔选项的默认值
func (c *ScoringConfig) optionBool(key string) (bool, bool) {
	for _, opt := range c.Options {
		if opt.Key != key {
			continue
		}
		if v, ok := opt.Default.(bool); ok {
			return v, true
		}
		return false, false
	}
	return false, false
}

// optionInt 查找整数选项的默认值
// JSON 反序列化后数字是 float64
func (c *ScoringConfig) optionInt(key string) (int, bool) {
	for _, opt := range c.Options {
		if opt.Key != key {
			continue
		}
		switch v := opt.Default.(type) {
		case int:
			return v, true
		case float64:
			return int(v), true
		}
		return 0, false
	}
	return 0, false
}
