package scoring

import (
	"sort"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
)

// Standing 终局名次
type Standing struct {
	GamePlayerID int64
	Rank         int
	IsWinner     bool
}

// Standings 按累计分计算终局名次
// high_wins 高分在前，low_wins 低分在前；同分并列名次（1,1,3 式排名）
func Standings(players []database.GamePlayer, direction string) []Standing {
	sorted := make([]database.GamePlayer, len(players))
	copy(sorted, players)

	sort.SliceStable(sorted, func(i, j int) bool {
		if direction == engine.DirectionLowWins {
			return sorted[i].TotalScore < sorted[j].TotalScore
		}
		return sorted[i].TotalScore > sorted[j].TotalScore
	})

	standings := make([]Standing, 0, len(sorted))
	rank := 0
	for i, gp := range sorted {
		if i == 0 || sorted[i].TotalScore != sorted[i-1].TotalScore {
			rank = i + 1
		}
		standings = append(standings, Standing{
			GamePlayerID: gp.ID,
			Rank:         rank,
			IsWinner:     rank == 1,
		})
	}
	return standings
}
