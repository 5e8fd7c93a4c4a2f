package scoring

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
)

// fakeStore 内存存储，行为与数据库实现一致
type fakeStore struct {
	players []database.GamePlayer
	rounds  map[int64]*database.Round
	scores  map[int64][]database.Score
	nextID  int64
}

func newFakeStore(players []database.GamePlayer) *fakeStore {
	return &fakeStore{
		players: players,
		rounds:  make(map[int64]*database.Round),
		scores:  make(map[int64][]database.Score),
		nextID:  1,
	}
}

func (s *fakeStore) GamePlayers(ctx context.Context, gameID int64) ([]database.GamePlayer, error) {
	var out []database.GamePlayer
	for _, gp := range s.players {
		if gp.GameID == gameID {
			out = append(out, gp)
		}
	}
	return out, nil
}

func (s *fakeStore) PlayingRound(ctx context.Context, gameID int64) (*database.Round, error) {
	for _, r := range s.rounds {
		if r.GameID == gameID && r.Status == database.RoundStatusPlaying {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) RoundByID(ctx context.Context, roundID int64) (*database.Round, error) {
	r, ok := s.rounds[roundID]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (s *fakeStore) MaxRoundNumber(ctx context.Context, gameID int64) (int, error) {
	max := 0
	for _, r := range s.rounds {
		if r.GameID == gameID && r.RoundNumber > max {
			max = r.RoundNumber
		}
	}
	return max, nil
}

func (s *fakeStore) CreateRound(ctx context.Context, r *database.Round, scores []database.Score) error {
	r.ID = s.nextID
	s.nextID++
	copied := *r
	s.rounds[r.ID] = &copied

	for i := range scores {
		scores[i].RoundID = r.ID
	}
	s.scores[r.ID] = append([]database.Score(nil), scores...)
	s.recalcTotals()
	return nil
}

func (s *fakeStore) FinishRound(ctx context.Context, r *database.Round, scores []database.Score) error {
	copied := *r
	s.rounds[r.ID] = &copied

	for i := range scores {
		scores[i].RoundID = r.ID
	}
	s.scores[r.ID] = append([]database.Score(nil), scores...)
	s.recalcTotals()
	return nil
}

func (s *fakeStore) DeleteRound(ctx context.Context, roundID int64) error {
	delete(s.rounds, roundID)
	delete(s.scores, roundID)
	s.recalcTotals()
	return nil
}

func (s *fakeStore) recalcTotals() {
	for i := range s.players {
		total := 0.0
		for _, scores := range s.scores {
			for _, sc := range scores {
				if sc.GamePlayerID == s.players[i].ID {
					total += sc.Points
				}
			}
		}
		s.players[i].TotalScore = total
	}
}

func (s *fakeStore) total(gamePlayerID int64) float64 {
	for _, gp := range s.players {
		if gp.ID == gamePlayerID {
			return gp.TotalScore
		}
	}
	return 0
}

func teamPtr(n int) *int { return &n }

// fiveHundredFixture 四人两队的 500 游戏
func fiveHundredFixture() (*database.Game, *database.GameType, *fakeStore) {
	cfg := (&engine.FiveHundredEngine{}).DefaultConfig()
	gameType := &database.GameType{ID: 1, Name: "500", ScoringConfig: &cfg}
	game := &database.Game{ID: 10, GameTypeID: &gameType.ID, Status: database.GameStatusActive}

	store := newFakeStore([]database.GamePlayer{
		{ID: 101, GameID: 10, PlayerID: 1, Team: teamPtr(1)},
		{ID: 102, GameID: 10, PlayerID: 2, Team: teamPtr(2)},
		{ID: 103, GameID: 10, PlayerID: 3, Team: teamPtr(1)},
		{ID: 104, GameID: 10, PlayerID: 4, Team: teamPtr(2)},
	})
	return game, gameType, store
}

func simpleFixture() (*database.Game, *database.GameType, *fakeStore) {
	gameType := &database.GameType{ID: 2, Name: "Generic"}
	game := &database.Game{ID: 20, GameTypeID: &gameType.ID, Status: database.GameStatusActive}

	store := newFakeStore([]database.GamePlayer{
		{ID: 201, GameID: 20, PlayerID: 1},
		{ID: 202, GameID: 20, PlayerID: 2},
	})
	return game, gameType, store
}

func TestSaveRoundOneShot(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())

	round, scores, err := c.SaveRound(context.Background(), game, gameType, RoundInput{
		Data: engine.RoundData{
			BidderTeam: "team_1",
			BidKey:     "7_hearts",
			TricksWon:  map[string]int{"team_1": 7, "team_2": 3},
		},
	})
	if err != nil {
		t.Fatalf("SaveRound 报错: %v", err)
	}

	if round.Status != database.RoundStatusCompleted {
		t.Errorf("回合状态 = %s, 期望 completed", round.Status)
	}
	if round.RoundNumber != 1 {
		t.Errorf("回合号 = %d, 期望 1", round.RoundNumber)
	}
	if round.RoundData.BidMade == nil || !*round.RoundData.BidMade {
		t.Error("bid_made 应为 true")
	}

	// team_1: 101 和 103 各 +200；team_2: 102 和 104 各 +30
	if len(scores) != 4 {
		t.Fatalf("分数行数 = %d, 期望 4", len(scores))
	}
	want := map[int64]float64{101: 200, 102: 30, 103: 200, 104: 30}
	for _, sc := range scores {
		if sc.Points != want[sc.GamePlayerID] {
			t.Errorf("玩家 %d 分数 = %v, 期望 %v", sc.GamePlayerID, sc.Points, want[sc.GamePlayerID])
		}
	}
	if store.total(101) != 200 || store.total(102) != 30 {
		t.Errorf("累计分未更新: %v / %v", store.total(101), store.total(102))
	}
}

func TestSaveRoundConflict(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	if _, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_1", BidKey: "6_spades"},
	}); err != nil {
		t.Fatalf("创建进行中回合失败: %v", err)
	}

	_, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_2", BidKey: "7_clubs"},
	})
	if !errors.Is(err, ErrRoundInProgress) {
		t.Errorf("err = %v, 期望 ErrRoundInProgress", err)
	}
}

func TestSaveRoundNumbering(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	data := engine.RoundData{
		BidderTeam: "team_1",
		BidKey:     "6_spades",
		TricksWon:  map[string]int{"team_1": 6, "team_2": 4},
	}

	for want := 1; want <= 3; want++ {
		round, _, err := c.SaveRound(ctx, game, gameType, RoundInput{Data: data})
		if err != nil {
			t.Fatalf("第 %d 回合保存失败: %v", want, err)
		}
		if round.RoundNumber != want {
			t.Errorf("回合号 = %d, 期望 %d", round.RoundNumber, want)
		}
	}
}

func TestTwoPhaseFlow(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	// 第一步：只有叫牌信息
	round, scores, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_2", BidKey: "8_diamonds"},
	})
	if err != nil {
		t.Fatalf("保存叫牌回合失败: %v", err)
	}
	if round.Status != database.RoundStatusPlaying {
		t.Fatalf("回合状态 = %s, 期望 playing", round.Status)
	}
	if len(scores) != 0 {
		t.Fatalf("进行中回合不应有分数行, 实际 %d 行", len(scores))
	}

	// 第二步：补录墩数完成计分
	done, scores, err := c.CompleteRound(ctx, game, gameType, round.ID,
		map[string]int{"team_1": 4, "team_2": 6})
	if err != nil {
		t.Fatalf("完成回合失败: %v", err)
	}
	if done.Status != database.RoundStatusCompleted {
		t.Errorf("回合状态 = %s, 期望 completed", done.Status)
	}
	if done.RoundData.BidMade == nil || *done.RoundData.BidMade {
		t.Error("失叫时 bid_made 应为 false")
	}

	// team_2 失叫 -280，team_1 防守 4 墩 +40
	want := map[int64]float64{101: 40, 103: 40, 102: -280, 104: -280}
	for _, sc := range scores {
		if sc.Points != want[sc.GamePlayerID] {
			t.Errorf("玩家 %d 分数 = %v, 期望 %v", sc.GamePlayerID, sc.Points, want[sc.GamePlayerID])
		}
	}
	if store.total(102) != -280 {
		t.Errorf("累计分 = %v, 期望 -280", store.total(102))
	}
}

func TestCompleteRoundValidationFailure(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	round, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_1", BidKey: "6_spades"},
	})
	if err != nil {
		t.Fatalf("保存叫牌回合失败: %v", err)
	}

	// 总墩数不是 10
	_, _, err = c.CompleteRound(ctx, game, gameType, round.ID,
		map[string]int{"team_1": 6, "team_2": 3})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, 期望 ValidationError", err)
	}
	if !containsString(verr.Errors, "Total tricks must equal 10") {
		t.Errorf("错误列表 %v 缺少总墩数校验", verr.Errors)
	}

	// 校验失败后回合保持进行中且无分数
	stored, _ := store.RoundByID(ctx, round.ID)
	if stored.Status != database.RoundStatusPlaying {
		t.Errorf("校验失败后回合状态 = %s, 期望 playing", stored.Status)
	}
	if store.total(101) != 0 {
		t.Errorf("校验失败后不应产生分数, 累计分 = %v", store.total(101))
	}
}

func TestCompleteRoundWrongState(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	round, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{
			BidderTeam: "team_1",
			BidKey:     "6_spades",
			TricksWon:  map[string]int{"team_1": 6, "team_2": 4},
		},
	})
	if err != nil {
		t.Fatalf("SaveRound 报错: %v", err)
	}

	// 已完成的回合不能再完成
	_, _, err = c.CompleteRound(ctx, game, gameType, round.ID,
		map[string]int{"team_1": 6, "team_2": 4})
	if !errors.Is(err, ErrRoundNotPlaying) {
		t.Errorf("err = %v, 期望 ErrRoundNotPlaying", err)
	}

	// 不存在的回合
	_, _, err = c.CompleteRound(ctx, game, gameType, 9999,
		map[string]int{"team_1": 6, "team_2": 4})
	if !errors.Is(err, ErrRoundNotInGame) {
		t.Errorf("err = %v, 期望 ErrRoundNotInGame", err)
	}
}

func TestCancelRound(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	round, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_1", BidKey: "misere"},
	})
	if err != nil {
		t.Fatalf("保存叫牌回合失败: %v", err)
	}

	if err := c.CancelRound(ctx, game, round.ID); err != nil {
		t.Fatalf("取消回合失败: %v", err)
	}
	if stored, _ := store.RoundByID(ctx, round.ID); stored != nil {
		t.Error("取消后回合应被删除")
	}

	// 取消后可以立即开新回合
	if _, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_2", BidKey: "7_hearts"},
	}); err != nil {
		t.Errorf("取消后开新回合失败: %v", err)
	}
}

func TestCancelCompletedRound(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())
	ctx := context.Background()

	round, _, err := c.SaveRound(ctx, game, gameType, RoundInput{
		Data: engine.RoundData{
			BidderTeam: "team_1",
			BidKey:     "6_spades",
			TricksWon:  map[string]int{"team_1": 6, "team_2": 4},
		},
	})
	if err != nil {
		t.Fatalf("SaveRound 报错: %v", err)
	}

	if err := c.CancelRound(ctx, game, round.ID); !errors.Is(err, ErrCancelCompleted) {
		t.Errorf("err = %v, 期望 ErrCancelCompleted", err)
	}
}

func TestSaveRoundSimpleEngine(t *testing.T) {
	game, gameType, store := simpleFixture()
	c := NewCoordinator(store, engine.NewRegistry())

	round, scores, err := c.SaveRound(context.Background(), game, gameType, RoundInput{
		Data: engine.RoundData{
			Scores: map[string]float64{"201": 15.5, "202": -3},
		},
	})
	if err != nil {
		t.Fatalf("SaveRound 报错: %v", err)
	}

	if round.Status != database.RoundStatusCompleted {
		t.Errorf("简单引擎回合应直接完成, 状态 = %s", round.Status)
	}
	if round.RoundData.BidMade != nil {
		t.Error("简单引擎不应设置 bid_made")
	}
	if len(scores) != 2 {
		t.Fatalf("分数行数 = %d, 期望 2", len(scores))
	}
	if store.total(201) != 15.5 || store.total(202) != -3 {
		t.Errorf("累计分 = %v / %v", store.total(201), store.total(202))
	}
}

func TestSaveRoundUnknownPlayerKey(t *testing.T) {
	game, gameType, store := simpleFixture()
	c := NewCoordinator(store, engine.NewRegistry())

	_, _, err := c.SaveRound(context.Background(), game, gameType, RoundInput{
		Data: engine.RoundData{
			Scores: map[string]float64{"999": 10},
		},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, 期望 ValidationError", err)
	}
	if !containsString(verr.Errors, "Score key 999 does not match a player in this game") {
		t.Errorf("错误列表 %v 缺少分数键校验", verr.Errors)
	}
}

func TestSaveRoundTeamWithoutMembers(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	// 全部成员挪到 1 队，2 队成为空队
	for i := range store.players {
		store.players[i].Team = teamPtr(1)
	}
	c := NewCoordinator(store, engine.NewRegistry())

	_, _, err := c.SaveRound(context.Background(), game, gameType, RoundInput{
		Data: engine.RoundData{
			BidderTeam: "team_1",
			BidKey:     "7_hearts",
			TricksWon:  map[string]int{"team_1": 7, "team_2": 3},
		},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, 期望 ValidationError", err)
	}
	if !containsString(verr.Errors, "No players assigned to team 2") {
		t.Errorf("错误列表 %v 缺少空队校验", verr.Errors)
	}
}

func TestSaveRoundBidOnlyInvalidBid(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())

	_, _, err := c.SaveRound(context.Background(), game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_1", BidKey: "11_hearts"},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, 期望 ValidationError", err)
	}
	if !containsString(verr.Errors, "Invalid bid") {
		t.Errorf("错误列表 %v 缺少无效叫牌校验", verr.Errors)
	}
}

func TestSaveRoundMisereDisabled(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	disabled := false
	game.GameConfig = &engine.GameOverrides{MisereEnabled: &disabled}

	c := NewCoordinator(store, engine.NewRegistry())

	_, _, err := c.SaveRound(context.Background(), game, gameType, RoundInput{
		Data: engine.RoundData{BidderTeam: "team_1", BidKey: "misere"},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, 期望 ValidationError", err)
	}
	if !containsString(verr.Errors, "Misère is not enabled for this game") {
		t.Errorf("错误列表 %v 缺少 misere 禁用校验", verr.Errors)
	}
}

func TestSaveRoundEmptyData(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())

	_, _, err := c.SaveRound(context.Background(), game, gameType, RoundInput{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, 期望 ValidationError", err)
	}
	want := []string{"Bidding team is required", "Bid is required", "Tricks won is required"}
	if !reflect.DeepEqual(verr.Errors, want) {
		t.Errorf("错误列表 = %v, 期望 %v", verr.Errors, want)
	}
}

func TestPreview(t *testing.T) {
	game, gameType, store := fiveHundredFixture()
	c := NewCoordinator(store, engine.NewRegistry())

	preview, err := c.Preview(game, gameType, engine.RoundData{
		BidderTeam: "team_1",
		BidKey:     "10_no_trump",
		TricksWon:  map[string]int{"team_1": 10, "team_2": 0},
	})
	if err != nil {
		t.Fatalf("Preview 报错: %v", err)
	}
	if !preview.Valid {
		t.Fatalf("试算不应失败: %v", preview.Errors)
	}
	if preview.Result.Scores["team_1"] != 520 {
		t.Errorf("team_1 = %v, 期望 520", preview.Result.Scores["team_1"])
	}

	// 校验失败时返回错误列表而非报错
	preview, err = c.Preview(game, gameType, engine.RoundData{})
	if err != nil {
		t.Fatalf("Preview 报错: %v", err)
	}
	if preview.Valid || len(preview.Errors) == 0 {
		t.Error("空数据试算应返回错误列表")
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
