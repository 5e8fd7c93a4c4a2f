package engine

import (
	"strconv"
	"strings"
)

// 花色（按叫牌价值升序）
const (
	SuitSpades   = "spades"
	SuitClubs    = "clubs"
	SuitDiamonds = "diamonds"
	SuitHearts   = "hearts"
	SuitNoTrump  = "no_trump"
)

// 特殊叫牌
const (
	BidMisere     = "misere"
	BidOpenMisere = "open_misere"
)

// suitOrder 花色固定顺序：黑桃 < 梅花 < 方块 < 红心 < 无将
var suitOrder = []string{SuitSpades, SuitClubs, SuitDiamonds, SuitHearts, SuitNoTrump}

// suitSymbols 花色符号
var suitSymbols = map[string]string{
	SuitSpades:   "♠",
	SuitClubs:    "♣",
	SuitDiamonds: "♦",
	SuitHearts:   "♥",
	SuitNoTrump:  "NT",
}

// defaultBidTable Avondale 叫牌分值表
// 键格式 "{墩数}_{花色}"，墩数 6-10，另有 misere 和 open_misere 两个特殊键
var defaultBidTable = map[string]int{
	"6_spades": 40, "6_clubs": 60, "6_diamonds": 80, "6_hearts": 100, "6_no_trump": 120,
	"7_spades": 140, "7_clubs": 160, "7_diamonds": 180, "7_hearts": 200, "7_no_trump": 220,
	"8_spades": 240, "8_clubs": 260, "8_diamonds": 280, "8_hearts": 300, "8_no_trump": 320,
	"9_spades": 340, "9_clubs": 360, "9_diamonds": 380, "9_hearts": 400, "9_no_trump": 420,
	"10_spades": 440, "10_clubs": 460, "10_diamonds": 480, "10_hearts": 500, "10_no_trump": 520,
	BidMisere:     250,
	BidOpenMisere: 500,
}

// DefaultBidTable 返回内置 Avondale 叫牌表的副本
func DefaultBidTable() map[string]int {
	table := make(map[string]int, len(defaultBidTable))
	for k, v := range defaultBidTable {
		table[k] = v
	}
	return table
}

// BidValue 查询叫牌分值
// table 为 nil 时使用内置表；未知键返回 0（表示无效叫牌，由校验层报错）
func BidValue(bidKey string, table map[string]int) int {
	if table == nil {
		table = defaultBidTable
	}
	return table[bidKey]
}

// bidTricks 从叫牌键解析墩数前缀（如 "7_hearts" 的 7）
// misere 变体和无效键返回 0
func bidTricks(bidKey string) int {
	prefix, _, ok := strings.Cut(bidKey, "_")
	if !ok {
		return 0
	}
	tricks, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return tricks
}

// isMisereKey 判断是否为 misere 变体叫牌
func isMisereKey(bidKey string) bool {
	return bidKey == BidMisere || bidKey == BidOpenMisere
}

// Bid 可选叫牌描述（供前端叫牌面板展示）
type Bid struct {
	Key        string `json:"key"`
	Tricks     int    `json:"tricks,omitempty"`
	Suit       string `json:"suit,omitempty"`
	SuitSymbol string `json:"suit_symbol,omitempty"`
	Value      int    `json:"value"`
	Label      string `json:"label"`
	Type       string `json:"type"`
}

// AvailableBids 列出当前配置下的全部可选叫牌
// 常规叫牌按墩数和花色升序，低于最低叫牌墩数的不展示，misere 变体受配置开关控制
func AvailableBids(cfg EffectiveConfig) []Bid {
	bids := make([]Bid, 0, len(defaultBidTable))

	minTricks := cfg.MinBid
	if minTricks < 6 {
		minTricks = 6
	}

	for tricks := minTricks; tricks <= 10; tricks++ {
		for _, suit := range suitOrder {
			key := strconv.Itoa(tricks) + "_" + suit
			bids = append(bids, Bid{
				Key:        key,
				Tricks:     tricks,
				Suit:       suit,
				SuitSymbol: suitSymbols[suit],
				Value:      BidValue(key, cfg.BidTable),
				Label:      strconv.Itoa(tricks) + suitSymbols[suit],
				Type:       "normal",
			})
		}
	}

	if cfg.MisereEnabled {
		bids = append(bids, Bid{
			Key:   BidMisere,
			Value: BidValue(BidMisere, cfg.BidTable),
			Label: "Misère",
			Type:  BidMisere,
		})
	}

	if cfg.OpenMisereEnabled {
		bids = append(bids, Bid{
			Key:   BidOpenMisere,
			Value: BidValue(BidOpenMisere, cfg.BidTable),
			Label: "Open Misère",
			Type:  BidOpenMisere,
		})
	}

	return bids
}
