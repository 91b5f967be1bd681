package rating

import (
	glicko "github.com/zelenin/go-glicko2"
)

type glickoRating struct {
	r     float64
	rd    float64
	sigma float64
}

func (r glickoRating) DisplayValue() int {
	return clampDisplay(r.r)
}

// Glicko2 rates every match as its own one-game rating period.
type Glicko2 struct{}

func NewGlicko2() Model {
	return &Glicko2{}
}

func (g *Glicko2) DefaultRating() Rating {
	d := glicko.NewDefaultRating()
	return glickoRating{r: d.R(), rd: d.Rd(), sigma: d.Sigma()}
}

func (g *Glicko2) RecordResult(winner, loser Rating) (Rating, Rating) {
	w := winner.(glickoRating)
	l := loser.(glickoRating)

	pw := glicko.NewPlayer(glicko.NewRating(w.r, w.rd, w.sigma))
	pl := glicko.NewPlayer(glicko.NewRating(l.r, l.rd, l.sigma))

	period := glicko.NewRatingPeriod()
	period.AddMatch(pw, pl, glicko.MATCH_RESULT_WIN)
	period.Calculate()

	nw := pw.Rating()
	nl := pl.Rating()
	return glickoRating{r: nw.R(), rd: nw.Rd(), sigma: nw.Sigma()},
		glickoRating{r: nl.R(), rd: nl.Rd(), sigma: nl.Sigma()}
}

func (g *Glicko2) CommitWin(_, posterior Rating) Rating  { return posterior }
func (g *Glicko2) CommitLoss(_, posterior Rating) Rating { return posterior }
func (g *Glicko2) StrictEligibility() bool               { return false }
