package engine

// SimpleEngine 简单计分引擎
// 分数由用户逐人手工录入，不做任何计算和校验
// 这是未配置计分引擎的游戏类型的默认行为
type SimpleEngine struct{}

// Calculate 原样返回用户录入的分数
func (e *SimpleEngine) Calculate(data RoundData, cfg EffectiveConfig) Result {
	return Result{Scores: data.Scores}
}

// Validate 简单引擎不校验任何规则
func (e *SimpleEngine) Validate(data RoundData, cfg EffectiveConfig) []string {
	return nil
}

// RequiredInputs 每个玩家一个分数输入框
func (e *SimpleEngine) RequiredInputs(cfg EffectiveConfig) []InputSpec {
	return []InputSpec{
		{Key: "points", Label: "Points", Type: "number", PerPlayer: true},
	}
}

// DefaultConfig 简单引擎的默认配置
func (e *SimpleEngine) DefaultConfig() ScoringConfig {
	return ScoringConfig{
		Engine:           EngineSimple,
		ScoringDirection: DirectionHighWins,
	}
}

// ConfigOptions 简单引擎没有可定制选项
func (e *SimpleEngine) ConfigOptions() []ConfigOption {
	return nil
}
