package engine

import (
	"strings"
	"testing"
)

func fiveHundredConfig() EffectiveConfig {
	eng := &FiveHundredEngine{}
	cfg := eng.DefaultConfig()
	return Effective(&cfg, nil)
}

func TestCalculateBidMadeExactTricks(t *testing.T) {
	eng := &FiveHundredEngine{}
	data := RoundData{
		BidderTeam: "team_1",
		BidKey:     "7_hearts",
		TricksWon:  map[string]int{"team_1": 7, "team_2": 3},
	}

	result := eng.Calculate(data, fiveHundredConfig())

	if !result.BidMade {
		t.Error("expected bid made")
	}
	if result.BidValue != 200 {
		t.Errorf("bid value = %d, want 200", result.BidValue)
	}
	if result.Scores["team_1"] != 200 {
		t.Errorf("team_1 = %v, want 200", result.Scores["team_1"])
	}
	if result.Scores["team_2"] != 30 {
		t.Errorf("team_2 = %v, want 30", result.Scores["team_2"])
	}
}

func TestCalculateOvertricksNoBonus(t *testing.T) {
	eng := &FiveHundredEngine{}
	data := RoundData{
		BidderTeam: "team_1",
		BidKey:     "6_spades",
		TricksWon:  map[string]int{"team_1": 9, "team_2": 1},
	}

	result := eng.Calculate(data, fiveHundredConfig())

	if !result.BidMade {
		t.Error("expected bid made")
	}
	// 超墩不加分，叫牌方只得叫牌分值
	if result.Scores["team_1"] != 40 {
		t.Errorf("team_1 = %v, want 40", result.Scores["team_1"])
	}
	if result.Scores["team_2"] != 10 {
		t.Errorf("team_2 = %v, want 10", result.Scores["team_2"])
	}
}

func TestCalculateBidFailed(t *testing.T) {
	eng := &FiveHundredEngine{}
	data := RoundData{
		BidderTeam: "team_2",
		BidKey:     "8_diamonds",
		TricksWon:  map[string]int{"team_1": 5, "team_2": 5},
	}

	result := eng.Calculate(data, fiveHundredConfig())

	if result.BidMade {
		t.Error("expected bid failed")
	}
	if result.BidValue != 280 {
		t.Errorf("bid value = %d, want 280", result.BidValue)
	}
	if result.Scores["team_2"] != -280 {
		t.Errorf("team_2 = %v, want -280", result.Scores["team_2"])
	}
	if result.Scores["team_1"] != 50 {
		t.Errorf("team_1 = %v, want 50", result.Scores["team_1"])
	}
}

func TestCalculateBidFailedZeroTricks(t *testing.T) {
	eng := &FiveHundredEngine{}
	data := RoundData{
		BidderTeam: "team_1",
		BidKey:     "10_no_trump",
		TricksWon:  map[string]int{"team_1": 0, "team_2": 10},
	}

	result := eng.Calculate(data, fiveHundredConfig())

	if result.BidMade {
		t.Error("expected bid failed")
	}
	if result.Scores["team_1"] != -520 {
		t.Errorf("team_1 = %v, want -520", result.Scores["team_1"])
	}
	if result.Scores["team_2"] != 100 {
		t.Errorf("team_2 = %v, want 100", result.Scores["team_2"])
	}
}

func TestCalculateTenHearts(t *testing.T) {
	eng := &FiveHundredEngine{}
	data := RoundData{
		BidderTeam: "team_1",
		BidKey:     "10_hearts",
		TricksWon:  map[string]int{"team_1": 10, "team_2": 0},
	}

	result := eng.Calculate(data, fiveHundredConfig())

	if !result.BidMade || result.BidValue != 500 {
		t.Errorf("bid_made=%v value=%d, want true/500", result.BidMade, result.BidValue)
	}
	if result.Scores["team_1"] != 500 || result.Scores["team_2"] != 0 {
		t.Errorf("scores = %v", result.Scores)
	}
}

func TestCalculateMisere(t *testing.T) {
	cases := []struct {
		name         string
		bidKey       string
		bidderTricks int
		wantMade     bool
		wantBidder   float64
	}{
		{"misere success", BidMisere, 0, true, 250},
		{"misere failure", BidMisere, 3, false, -250},
		{"open misere success", BidOpenMisere, 0, true, 500},
		{"open misere failure", BidOpenMisere, 1, false, -500},
	}

	eng := &FiveHundredEngine{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := RoundData{
				BidderTeam: "team_1",
				BidKey:     tc.bidKey,
				TricksWon:  map[string]int{"team_1": tc.bidderTricks, "team_2": totalTricks - tc.bidderTricks},
			}

			result := eng.Calculate(data, fiveHundredConfig())

			if result.BidMade != tc.wantMade {
				t.Errorf("bid_made = %v, want %v", result.BidMade, tc.wantMade)
			}
			if result.Scores["team_1"] != tc.wantBidder {
				t.Errorf("team_1 = %v, want %v", result.Scores["team_1"], tc.wantBidder)
			}
			// misere 时防守方无论赢多少墩都是 0 分
			if result.Scores["team_2"] != 0 {
				t.Errorf("team_2 = %v, want 0", result.Scores["team_2"])
			}
		})
	}
}

func TestCalculateEmptyResult(t *testing.T) {
	cases := []struct {
		name string
		data RoundData
	}{
		{"missing bid key", RoundData{BidderTeam: "team_1", TricksWon: map[string]int{"team_1": 5, "team_2": 5}}},
		{"missing bidder team", RoundData{BidKey: "7_hearts", TricksWon: map[string]int{"team_1": 5, "team_2": 5}}},
		{"unknown bid key", RoundData{BidderTeam: "team_1", BidKey: "11_rockets", TricksWon: map[string]int{"team_1": 5, "team_2": 5}}},
	}

	eng := &FiveHundredEngine{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := eng.Calculate(tc.data, fiveHundredConfig())
			if len(result.Scores) != 0 {
				t.Errorf("expected empty result, got %v", result.Scores)
			}
		})
	}
}

func TestValidateSucceeds(t *testing.T) {
	eng := &FiveHundredEngine{}
	data := RoundData{
		BidderTeam: "team_1",
		BidKey:     "7_hearts",
		TricksWon:  map[string]int{"team_1": 7, "team_2": 3},
	}

	if errs := eng.Validate(data, fiveHundredConfig()); errs != nil {
		t.Errorf("expected valid, got %v", errs)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		data    RoundData
		wantErr string
	}{
		{
			"missing bidder team",
			RoundData{BidKey: "7_hearts", TricksWon: map[string]int{"team_1": 7, "team_2": 3}},
			"Bidding team is required",
		},
		{
			"missing bid key",
			RoundData{BidderTeam: "team_1", TricksWon: map[string]int{"team_1": 7, "team_2": 3}},
			"Bid is required",
		},
		{
			"invalid bid key",
			RoundData{BidderTeam: "team_1", BidKey: "5_spades", TricksWon: map[string]int{"team_1": 7, "team_2": 3}},
			"Invalid bid",
		},
		{
			"tricks must equal ten",
			RoundData{BidderTeam: "team_1", BidKey: "7_hearts", TricksWon: map[string]int{"team_1": 5, "team_2": 6}},
			"Total tricks must equal 10",
		},
		{
			"missing tricks won",
			RoundData{BidderTeam: "team_1", BidKey: "7_hearts"},
			"Tricks won is required",
		},
		{
			"negative tricks",
			RoundData{BidderTeam: "team_1", BidKey: "7_hearts", TricksWon: map[string]int{"team_1": 12, "team_2": -2}},
			"Invalid trick count for team_2",
		},
	}

	eng := &FiveHundredEngine{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := eng.Validate(tc.data, fiveHundredConfig())
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			found := false
			for _, e := range errs {
				if e == tc.wantErr {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", errs, tc.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	eng := &FiveHundredEngine{}
	// 三项规则同时违反，必须全部报告而不是只报第一个
	errs := eng.Validate(RoundData{}, fiveHundredConfig())

	want := []string{"Bidding team is required", "Bid is required", "Tricks won is required"}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors %v, want %d", len(errs), errs, len(want))
	}
	for i, e := range errs {
		if e != want[i] {
			t.Errorf("errors[%d] = %q, want %q", i, e, want[i])
		}
	}
}

func TestValidateMisereDisabled(t *testing.T) {
	eng := &FiveHundredEngine{}
	cfg := fiveHundredConfig()
	cfg.MisereEnabled = false
	cfg.OpenMisereEnabled = false

	data := RoundData{
		BidderTeam: "team_1",
		BidKey:     BidMisere,
		TricksWon:  map[string]int{"team_1": 0, "team_2": 10},
	}
	errs := eng.Validate(data, cfg)
	if len(errs) != 1 || !strings.Contains(errs[0], "Misère is not enabled") {
		t.Errorf("errors = %v", errs)
	}

	data.BidKey = BidOpenMisere
	errs = eng.Validate(data, cfg)
	if len(errs) != 1 || !strings.Contains(errs[0], "Open Misère is not enabled") {
		t.Errorf("errors = %v", errs)
	}
}

func TestDefaultConfigStructure(t *testing.T) {
	eng := &FiveHundredEngine{}
	cfg := eng.DefaultConfig()

	if cfg.Engine != EngineFiveHundred {
		t.Errorf("engine = %q", cfg.Engine)
	}
	if cfg.TargetScore != 500 || cfg.LoseScore != -500 {
		t.Errorf("target=%d lose=%d", cfg.TargetScore, cfg.LoseScore)
	}
	if !cfg.Teams.Enabled || cfg.Teams.Size != 2 {
		t.Errorf("teams = %+v", cfg.Teams)
	}
	if len(cfg.BidTable) != 27 {
		t.Errorf("bid table has %d entries, want 27", len(cfg.BidTable))
	}
	if !cfg.TrackDealer {
		t.Error("track_dealer should default to true")
	}
}

func TestConfigOptionsKeys(t *testing.T) {
	eng := &FiveHundredEngine{}
	opts := eng.ConfigOptions()

	keys := make(map[string]bool, len(opts))
	for _, opt := range opts {
		keys[opt.Key] = true
	}
	for _, want := range []string{OptionKittySize, OptionMinBid, OptionMisereEnabled, OptionOpenMisereEnabled} {
		if !keys[want] {
			t.Errorf("missing option %q", want)
		}
	}
}

func TestRequiredInputs(t *testing.T) {
	eng := &FiveHundredEngine{}
	inputs := eng.RequiredInputs(fiveHundredConfig())

	if len(inputs) != 3 {
		t.Fatalf("got %d inputs, want 3", len(inputs))
	}
	if inputs[0].Key != "bidder_team" || inputs[1].Key != "bid_key" || inputs[2].Key != "tricks_won" {
		t.Errorf("inputs = %+v", inputs)
	}
	if !inputs[2].PerTeam {
		t.Error("tricks_won should be per-team")
	}
}
