package rating

import "math"

const (
	eloStart = 1200.0
	eloK     = 32.0
)

type eloRating struct {
	value float64
}

func (r eloRating) DisplayValue() int {
	return clampDisplay(r.value)
}

// Elo is the classic logistic-expectation update with a fixed K-factor.
type Elo struct {
	k float64
}

func NewElo() Model {
	return &Elo{k: eloK}
}

func (e *Elo) DefaultRating() Rating {
	return eloRating{value: eloStart}
}

func (e *Elo) RecordResult(winner, loser Rating) (Rating, Rating) {
	w := winner.(eloRating).value
	l := loser.(eloRating).value
	expected := 1.0 / (1.0 + math.Pow(10, (l-w)/400.0))
	delta := e.k * (1.0 - expected)
	return eloRating{value: w + delta}, eloRating{value: l - delta}
}

func (e *Elo) CommitWin(_, posterior Rating) Rating  { return posterior }
func (e *Elo) CommitLoss(_, posterior Rating) Rating { return posterior }
func (e *Elo) StrictEligibility() bool               { return false }
