package scoring

import (
	"testing"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
)

func TestStandingsHighWins(t *testing.T) {
	players := []database.GamePlayer{
		{ID: 1, TotalScore: 120},
		{ID: 2, TotalScore: 540},
		{ID: 3, TotalScore: -80},
	}

	standings := Standings(players, engine.DirectionHighWins)

	want := []Standing{
		{GamePlayerID: 2, Rank: 1, IsWinner: true},
		{GamePlayerID: 1, Rank: 2},
		{GamePlayerID: 3, Rank: 3},
	}
	for i, s := range standings {
		if s != want[i] {
			t.Errorf("standings[%d] = %+v, 期望 %+v", i, s, want[i])
		}
	}
}

func TestStandingsLowWins(t *testing.T) {
	players := []database.GamePlayer{
		{ID: 1, TotalScore: 45},
		{ID: 2, TotalScore: 12},
	}

	standings := Standings(players, engine.DirectionLowWins)

	if standings[0].GamePlayerID != 2 || !standings[0].IsWinner {
		t.Errorf("低分获胜模式下 2 号应排第一: %+v", standings)
	}
	if standings[1].Rank != 2 || standings[1].IsWinner {
		t.Errorf("standings[1] = %+v", standings[1])
	}
}

func TestStandingsTies(t *testing.T) {
	players := []database.GamePlayer{
		{ID: 1, TotalScore: 100},
		{ID: 2, TotalScore: 100},
		{ID: 3, TotalScore: 50},
	}

	standings := Standings(players, engine.DirectionHighWins)

	if standings[0].Rank != 1 || standings[1].Rank != 1 {
		t.Errorf("同分应并列第一: %+v", standings)
	}
	if !standings[0].IsWinner || !standings[1].IsWinner {
		t.Error("并列第一都应标记为胜者")
	}
	if standings[2].Rank != 3 {
		t.Errorf("第三人名次 = %d, 期望 3（跳过 2）", standings[2].Rank)
	}
}
