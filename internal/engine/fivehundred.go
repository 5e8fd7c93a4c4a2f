package engine

import "fmt"

// FiveHundredEngine 500 计分引擎
// 实现澳大利亚经典纸牌游戏 500 的 Avondale 计分表
// 支持 4 人两两组队、Misère 和 Open Misère 叫牌
type FiveHundredEngine struct{}

// 每手牌固定 10 墩
const totalTricks = 10

// 防守方每赢一墩得 10 分
const opponentPointsPerTrick = 10

// Calculate 计算一个回合的分数
// bid_key 或 bidder_team 缺失、或叫牌键不在叫牌表中时返回空结果
func (e *FiveHundredEngine) Calculate(data RoundData, cfg EffectiveConfig) Result {
	if data.BidKey == "" || data.BidderTeam == "" {
		return Result{}
	}

	bidValue := BidValue(data.BidKey, cfg.BidTable)
	if bidValue == 0 {
		return Result{}
	}

	if isMisereKey(data.BidKey) {
		return e.calculateMisere(data, bidValue)
	}
	return e.calculateNormal(data, bidValue)
}

// calculateNormal 常规叫牌计分
// 叫牌方赢到至少叫牌墩数即成叫，得固定叫牌分值，超墩不加分；
// 失叫扣叫牌分值。防守方无论成败每墩得 10 分
func (e *FiveHundredEngine) calculateNormal(data RoundData, bidValue int) Result {
	tricks := bidTricks(data.BidKey)
	bidderTricksWon := data.TricksWon[data.BidderTeam]
	bidMade := bidderTricksWon >= tricks

	scores := make(map[string]float64, len(data.TricksWon))
	for team, won := range data.TricksWon {
		if team == data.BidderTeam {
			if bidMade {
				scores[team] = float64(bidValue)
			} else {
				scores[team] = float64(-bidValue)
			}
		} else {
			scores[team] = float64(won * opponentPointsPerTrick)
		}
	}

	return Result{Scores: scores, BidMade: bidMade, BidValue: bidValue}
}

// calculateMisere misere 变体计分
// 叫牌方一墩不赢才算成叫；防守方一律 0 分（misere 暂停防守方逐墩计分规则）
func (e *FiveHundredEngine) calculateMisere(data RoundData, bidValue int) Result {
	bidderTricksWon := data.TricksWon[data.BidderTeam]
	bidMade := bidderTricksWon == 0

	scores := make(map[string]float64, len(data.TricksWon))
	for team := range data.TricksWon {
		if team == data.BidderTeam {
			if bidMade {
				scores[team] = float64(bidValue)
			} else {
				scores[team] = float64(-bidValue)
			}
		} else {
			scores[team] = 0
		}
	}

	return Result{Scores: scores, BidMade: bidMade, BidValue: bidValue}
}

// Validate 校验回合数据，收集全部违规项而不是遇错即停
func (e *FiveHundredEngine) Validate(data RoundData, cfg EffectiveConfig) []string {
	var errors []string

	if data.BidderTeam == "" {
		errors = append(errors, "Bidding team is required")
	}

	if data.BidKey == "" {
		errors = append(errors, "Bid is required")
	} else {
		if BidValue(data.BidKey, cfg.BidTable) == 0 {
			errors = append(errors, "Invalid bid")
		}

		if data.BidKey == BidMisere && !cfg.MisereEnabled {
			errors = append(errors, "Misère is not enabled for this game")
		}
		if data.BidKey == BidOpenMisere && !cfg.OpenMisereEnabled {
			errors = append(errors, "Open Misère is not enabled for this game")
		}
	}

	if len(data.TricksWon) == 0 {
		errors = append(errors, "Tricks won is required")
	} else {
		total := 0
		for _, won := range data.TricksWon {
			total += won
		}
		if total != totalTricks {
			errors = append(errors, "Total tricks must equal 10")
		}

		for team, won := range data.TricksWon {
			if won < 0 || won > totalTricks {
				errors = append(errors, fmt.Sprintf("Invalid trick count for %s", team))
			}
		}
	}

	return errors
}

// RequiredInputs 500 引擎需要叫牌队伍、叫牌和每队墩数
func (e *FiveHundredEngine) RequiredInputs(cfg EffectiveConfig) []InputSpec {
	return []InputSpec{
		{Key: "bidder_team", Label: "Bidding Team", Type: "select"},
		{Key: "bid_key", Label: "Bid", Type: "bid_grid"},
		{Key: "tricks_won", Label: "Tricks Won", Type: "tricks", PerTeam: true},
	}
}

// DefaultConfig 500 引擎新建游戏类型的默认配置
func (e *FiveHundredEngine) DefaultConfig() ScoringConfig {
	return ScoringConfig{
		Engine:           EngineFiveHundred,
		ScoringDirection: DirectionHighWins,
		WinCondition:     "first_to_target",
		TargetScore:      500,
		LoseScore:        -500,
		TrackDealer:      true,
		Teams:            TeamConfig{Enabled: true, Size: 2},
		Options:          e.ConfigOptions(),
		BidTable:         DefaultBidTable(),
		ScoringRules: &ScoringRules{
			BidWon:           "bid_value",
			BidLost:          "-bid_value",
			OpponentPerTrick: opponentPointsPerTrick,
		},
	}
}

// ConfigOptions 500 引擎可定制选项
func (e *FiveHundredEngine) ConfigOptions() []ConfigOption {
	return []ConfigOption{
		{
			Key:   OptionKittySize,
			Label: "Kitty Size",
			Type:  "select",
			Choices: []OptionChoice{
				{Value: 3, Label: "3 cards"},
				{Value: 5, Label: "5 cards"},
			},
			Default: 3,
		},
		{
			Key:   OptionMinBid,
			Label: "Minimum Bid",
			Type:  "select",
			Choices: []OptionChoice{
				{Value: 6, Label: "6 tricks"},
				{Value: 7, Label: "7 tricks"},
			},
			Default: 6,
		},
		{
			Key:     OptionMisereEnabled,
			Label:   "Allow Misère / Nullo",
			Type:    "boolean",
			Default: true,
		},
		{
			Key:     OptionOpenMisereEnabled,
			Label:   "Allow Open Misère / Nullo",
			Type:    "boolean",
			Default: true,
		},
	}
}
