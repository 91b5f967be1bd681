package rating

import (
	"math"

	osrating "github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
)

const (
	openskillMu    = 25.0
	openskillSigma = openskillMu / 3.0

	// MinWinIncrease is the guaranteed display-scale gain for every win under
	// the openskill commit policy.
	MinWinIncrease = 5
)

type openskillRating struct {
	internal types.Rating
}

func (r openskillRating) ordinal() float64 {
	v := osrating.Ordinal(r.internal)
	if v < 0 {
		v = 0
	}
	return v
}

func (r openskillRating) DisplayValue() int {
	return int(math.Round(r.ordinal() * 100))
}

// minimalIncrease returns a copy with the underlying estimate nudged by the
// minimum win increase on the internal scale.
func (r openskillRating) minimalIncrease() openskillRating {
	c := r.internal
	c.Mu += float64(MinWinIncrease) / 100.0
	return openskillRating{internal: c}
}

// OpenSkill layers a monotonic commit policy on the raw posteriors: a win
// always gains at least MinWinIncrease display units, and a loss never
// lowers the committed rating.
type OpenSkill struct{}

func NewOpenSkill() Model {
	return &OpenSkill{}
}

func (o *OpenSkill) DefaultRating() Rating {
	return openskillRating{internal: osrating.NewWithOptions(&types.OpenSkillOptions{
		Mu:    f64(openskillMu),
		Sigma: f64(openskillSigma),
	})}
}

func (o *OpenSkill) RecordResult(winner, loser Rating) (Rating, Rating) {
	teams := osrating.Rate([]types.Team{
		{winner.(openskillRating).internal},
		{loser.(openskillRating).internal},
	}, &types.OpenSkillOptions{})
	return openskillRating{internal: teams[0][0]}, openskillRating{internal: teams[1][0]}
}

func (o *OpenSkill) CommitWin(prior, posterior Rating) Rating {
	if posterior.DisplayValue() > prior.DisplayValue()+MinWinIncrease {
		return posterior
	}
	return prior.(openskillRating).minimalIncrease()
}

func (o *OpenSkill) CommitLoss(prior, posterior Rating) Rating {
	if posterior.DisplayValue() > prior.DisplayValue() {
		return posterior
	}
	return prior
}

func (o *OpenSkill) StrictEligibility() bool { return true }

func f64(v float64) *float64 {
	return &v
}
