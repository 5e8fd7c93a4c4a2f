// Package engine 提供回合计分引擎
// 每个引擎都是无状态的纯函数集合，可以被多个请求并发调用
package engine

// RoundData 回合原始数据
// 叫牌阶段只有 bid 字段，墩数录入后 TricksWon 才存在
type RoundData struct {
	BidderTeam string             `json:"bidder_team,omitempty"`
	BidKey     string             `json:"bid_key,omitempty"`
	BidTricks  int                `json:"bid_tricks,omitempty"`
	TricksWon  map[string]int     `json:"tricks_won,omitempty"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	BidMade    *bool              `json:"bid_made,omitempty"`
}

// Result 计分结果
// Scores 按队伍或玩家键映射到分数增量
// BidMade 和 BidValue 仅 500 引擎有意义，简单引擎保持零值
type Result struct {
	Scores   map[string]float64 `json:"scores"`
	BidMade  bool               `json:"bid_made"`
	BidValue int                `json:"bid_value"`
}

// InputSpec 描述回合录入表单需要的输入项（仅供前端展示）
type InputSpec struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	PerPlayer bool   `json:"per_player"`
	PerTeam   bool   `json:"per_team,omitempty"`
}

// Engine 计分引擎接口
// Calculate 是纯函数：必填字段缺失时返回空结果（Scores 为 nil），不报错，
// 调用方应先用 Validate 获取诊断信息
// Validate 返回 nil 表示合法，否则返回全部违反规则的错误列表（不短路）
type Engine interface {
	Calculate(data RoundData, cfg EffectiveConfig) Result
	Validate(data RoundData, cfg EffectiveConfig) []string
	RequiredInputs(cfg EffectiveConfig) []InputSpec
	DefaultConfig() ScoringConfig
	ConfigOptions() []ConfigOption
}
