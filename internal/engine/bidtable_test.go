package engine

import (
	"strconv"
	"testing"
)

func TestBidValueKnownKeys(t *testing.T) {
	cases := map[string]int{
		"6_spades":    40,
		"6_no_trump":  120,
		"7_hearts":    200,
		"8_clubs":     260,
		"10_no_trump": 520,
		BidMisere:     250,
		BidOpenMisere: 500,
	}
	for key, want := range cases {
		if got := BidValue(key, nil); got != want {
			t.Errorf("BidValue(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestBidValueUnknownKeyIsZero(t *testing.T) {
	if got := BidValue("11_spades", nil); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestBidValueCustomTable(t *testing.T) {
	table := map[string]int{"6_spades": 99}
	if got := BidValue("6_spades", table); got != 99 {
		t.Errorf("got %d, want 99", got)
	}
	// 自定义表整体替换内置表，不做合并
	if got := BidValue("7_hearts", table); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

// 分值在同一墩数内按花色严格递增，跨墩数也严格递增
func TestBidTableMonotonicity(t *testing.T) {
	prev := 0
	for tricks := 6; tricks <= 10; tricks++ {
		for _, suit := range suitOrder {
			key := strconv.Itoa(tricks) + "_" + suit
			v, ok := defaultBidTable[key]
			if !ok {
				t.Fatalf("missing bid table entry %q", key)
			}
			if v <= prev {
				t.Errorf("%s = %d, not greater than previous %d", key, v, prev)
			}
			prev = v
		}
	}
}

// 表公式: (t-6)*100 + 20 + suitRank*20
func TestBidTableFormula(t *testing.T) {
	for tricks := 6; tricks <= 10; tricks++ {
		for rank, suit := range suitOrder {
			key := strconv.Itoa(tricks) + "_" + suit
			want := (tricks-6)*100 + 20 + (rank+1)*20
			if got := defaultBidTable[key]; got != want {
				t.Errorf("%s = %d, want %d", key, got, want)
			}
		}
	}
}

func TestDefaultBidTableIsCopy(t *testing.T) {
	table := DefaultBidTable()
	table["6_spades"] = 1
	if defaultBidTable["6_spades"] != 40 {
		t.Error("DefaultBidTable must not expose the internal table")
	}
}

func TestBidTricksPrefix(t *testing.T) {
	cases := map[string]int{
		"6_spades":    6,
		"10_no_trump": 10,
		BidMisere:     0,
		BidOpenMisere: 0,
		"garbage":     0,
	}
	for key, want := range cases {
		if got := bidTricks(key); got != want {
			t.Errorf("bidTricks(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestAvailableBids(t *testing.T) {
	cfg := fiveHundredConfig()

	bids := AvailableBids(cfg)
	if len(bids) != 27 {
		t.Fatalf("got %d bids, want 27", len(bids))
	}
	if bids[0].Key != "6_spades" || bids[24].Key != "10_no_trump" {
		t.Errorf("unexpected ordering: first=%q last standard=%q", bids[0].Key, bids[24].Key)
	}

	cfg.MisereEnabled = false
	bids = AvailableBids(cfg)
	if len(bids) != 26 {
		t.Errorf("got %d bids without misère, want 26", len(bids))
	}

	cfg.OpenMisereEnabled = false
	bids = AvailableBids(cfg)
	if len(bids) != 25 {
		t.Errorf("got %d bids with neither misère, want 25", len(bids))
	}
	for _, b := range bids {
		if b.Type != "normal" {
			t.Errorf("unexpected bid %q", b.Key)
		}
	}

	cfg.MinBid = 7
	bids = AvailableBids(cfg)
	if len(bids) != 20 {
		t.Errorf("got %d bids with min bid 7, want 20", len(bids))
	}
	if bids[0].Key != "7_spades" {
		t.Errorf("first bid = %q, want 7_spades", bids[0].Key)
	}
}
