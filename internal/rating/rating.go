// Package rating defines the pluggable skill-rating contract and the four
// supported algorithms. A Model turns two priors and a win/loss outcome into
// two posteriors; its commit policy decides what actually gets written to a
// player, so the ranking engine never special-cases an algorithm.
package rating

import (
	"fmt"
	"sort"
)

// Rating is an opaque algorithm-specific skill estimate. DisplayValue is the
// normalized integer projection used for sorting and display; it is monotonic
// in the underlying estimate and never negative.
type Rating interface {
	DisplayValue() int
}

// Model is one rating algorithm. CommitWin and CommitLoss implement the
// per-algorithm commit policy: given the player's committed prior and the raw
// posterior from RecordResult, they return the rating to commit. Most
// variants commit the raw posterior unconditionally.
type Model interface {
	DefaultRating() Rating
	RecordResult(winner, loser Rating) (winnerPost, loserPost Rating)
	CommitWin(prior, posterior Rating) Rating
	CommitLoss(prior, posterior Rating) Rating

	// StrictEligibility reports whether seasons using this algorithm enforce
	// the participation bar by default. Season descriptors may override it.
	StrictEligibility() bool
}

// Systems maps algorithm ids to constructors, mirroring the season
// configuration's algorithm field.
var Systems = map[string]func() Model{
	"elo":       NewElo,
	"glicko":    NewGlicko2,
	"trueskill": NewTrueSkill,
	"openskill": NewOpenSkill,
}

// New returns a fresh model for the given algorithm id.
func New(algorithm string) (Model, error) {
	ctor, ok := Systems[algorithm]
	if !ok {
		return nil, fmt.Errorf("unknown rating algorithm %q", algorithm)
	}
	return ctor(), nil
}

// Algorithms lists the supported algorithm ids in stable order.
func Algorithms() []string {
	ids := make([]string, 0, len(Systems))
	for id := range Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clampDisplay(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v + 0.5)
}
