package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder-tracker/internal/domain"
)

func gamesBetween(profile int64, opponents []int64, count int) []domain.Game {
	games := make([]domain.Game, 0, count)
	for i := 0; i < count; i++ {
		games = append(games, domain.Game{
			Hash:       fmt.Sprintf("g%d", i),
			EndTime:    time.Date(2026, 3, 1, i, 0, 0, 0, time.UTC),
			ProfileID0: profile,
			ProfileID1: opponents[i%len(opponents)],
		})
	}
	return games
}

func TestEligibleBoundary(t *testing.T) {
	none := map[int64]bool{}

	ok, comment := Eligible(gamesBetween(1, []int64{2, 3, 4}, 7), none, 1)
	assert.True(t, ok)
	assert.Empty(t, comment)

	ok, comment = Eligible(gamesBetween(1, []int64{2, 3, 4}, 6), none, 1)
	assert.False(t, ok)
	assert.Equal(t, "Needs to play at least 7 games.", comment)

	ok, comment = Eligible(gamesBetween(1, []int64{2, 3}, 7), none, 1)
	assert.False(t, ok)
	assert.Equal(t, "Needs to play games against 3 unique opponents (only played 2 yet).", comment)
}

func TestEligibleReportsEveryFailedCondition(t *testing.T) {
	ok, comment := Eligible(gamesBetween(1, []int64{2}, 3), map[int64]bool{}, 1)
	assert.False(t, ok)
	assert.Equal(t, "Needs to play games against 3 unique opponents (only played 1 yet). "+
		"Needs to play at least 7 games.", comment)
}

func TestEligibleIgnoresBannedOpponents(t *testing.T) {
	games := gamesBetween(1, []int64{2, 3, 4}, 9)
	banned := map[int64]bool{4: true}

	// Banned games do not count: 9 games shrink to 6 against 2 opponents.
	ok, comment := Eligible(games, banned, 1)
	assert.False(t, ok)
	assert.Equal(t, "Needs to play games against 3 unique opponents (only played 2 yet). "+
		"Needs to play at least 7 games.", comment)
}

func TestEligibleCountsBothSides(t *testing.T) {
	games := gamesBetween(1, []int64{2, 3, 4}, 4)
	for i := 0; i < 3; i++ {
		games = append(games, domain.Game{
			Hash:       fmt.Sprintf("r%d", i),
			ProfileID0: int64(2 + i),
			ProfileID1: 1,
		})
	}

	ok, _ := Eligible(games, map[int64]bool{}, 1)
	assert.True(t, ok)
}

func rows(ratings ...int) []domain.RankingRow {
	out := make([]domain.RankingRow, 0, len(ratings))
	for i, r := range ratings {
		out = append(out, domain.RankingRow{ProfileID: int64(i + 1), Eligible: true, Rating: r})
	}
	return out
}

func TestAssignRanksActiveSeason(t *testing.T) {
	table := rows(500, 900, 700)
	table[0].Eligible = false

	AssignRanks(table, true)

	// Everyone gets a provisional rank by rating order while rolling.
	require.NotNil(t, table[0].Rank)
	assert.Equal(t, int64(2), table[0].ProfileID)
	assert.Equal(t, 1, *table[0].Rank)
	assert.Equal(t, 2, *table[1].Rank)
	assert.Equal(t, 3, *table[2].Rank)
}

func TestAssignRanksArchivedCompresses(t *testing.T) {
	table := rows(900, 800, 700, 600)
	table[1].Eligible = false

	AssignRanks(table, false)

	assert.Equal(t, 1, *table[0].Rank)
	assert.Nil(t, table[1].Rank)
	assert.Equal(t, 2, *table[2].Rank)
	assert.Equal(t, 3, *table[3].Rank)
}

func TestAssignRanksTieBreaksByProfileID(t *testing.T) {
	table := []domain.RankingRow{
		{ProfileID: 9, Eligible: true, Rating: 700},
		{ProfileID: 3, Eligible: true, Rating: 700},
	}
	AssignRanks(table, false)

	assert.Equal(t, int64(3), table[0].ProfileID)
	assert.Equal(t, 1, *table[0].Rank)
	assert.Equal(t, 2, *table[1].Rank)
}
