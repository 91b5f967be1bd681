// Package ranking judges who qualifies for an official rank and assigns
// positions in a season's table.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"ladder-tracker/internal/domain"
)

const (
	// MinGames is the number of counted games required for an official rank.
	MinGames = 7
	// MinOpponents is the number of distinct opponents required.
	MinOpponents = 3
)

// Eligible judges one profile against a season's games. Games involving a
// banned participant do not count. The explanation names every failed
// condition and is empty for eligible players.
func Eligible(games []domain.Game, banned map[int64]bool, profileID int64) (bool, string) {
	played := 0
	opponents := make(map[int64]bool)
	for _, g := range games {
		if banned[g.ProfileID0] || banned[g.ProfileID1] {
			continue
		}
		var opponent int64
		switch profileID {
		case g.ProfileID0:
			opponent = g.ProfileID1
		case g.ProfileID1:
			opponent = g.ProfileID0
		default:
			continue
		}
		played++
		opponents[opponent] = true
	}

	var reasons []string
	if len(opponents) < MinOpponents {
		reasons = append(reasons, fmt.Sprintf("Needs to play games against %d unique opponents (only played %d yet).",
			MinOpponents, len(opponents)))
	}
	if played < MinGames {
		reasons = append(reasons, fmt.Sprintf("Needs to play at least %d games.", MinGames))
	}
	if len(reasons) > 0 {
		return false, strings.Join(reasons, " ")
	}
	return true, ""
}

// AssignRanks orders rows best first and numbers them. While the season is
// active every player gets a provisional rank by rating order. Once archived,
// ineligible players lose their rank and eligible ranks close up the gaps.
func AssignRanks(rows []domain.RankingRow, active bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].ProfileID < rows[j].ProfileID
	})

	skipped := 0
	for i := range rows {
		if active {
			rank := i + 1
			rows[i].Rank = &rank
			continue
		}
		if !rows[i].Eligible {
			rows[i].Rank = nil
			skipped++
			continue
		}
		rank := i + 1 - skipped
		rows[i].Rank = &rank
	}
}
