package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New("chess-ladder-3000")
	assert.Error(t, err)
}

func TestAlgorithmsStable(t *testing.T) {
	assert.Equal(t, []string{"elo", "glicko", "openskill", "trueskill"}, Algorithms())
}

func TestEloWinnerGainsLoserLoses(t *testing.T) {
	model := NewElo()
	w, l := model.RecordResult(model.DefaultRating(), model.DefaultRating())

	// Equal priors: the winner takes exactly half the K-factor.
	assert.Equal(t, 1216, w.DisplayValue())
	assert.Equal(t, 1184, l.DisplayValue())
}

func TestEloUpsetGainsMore(t *testing.T) {
	model := NewElo()
	underdog := eloRating{value: 1000}
	favourite := eloRating{value: 1400}

	w, l := model.RecordResult(underdog, favourite)
	assert.Greater(t, w.DisplayValue()-underdog.DisplayValue(), 16)
	assert.Less(t, l.DisplayValue(), favourite.DisplayValue())
}

func TestGlicko2WinnerAboveLoser(t *testing.T) {
	model := NewGlicko2()
	w, l := model.RecordResult(model.DefaultRating(), model.DefaultRating())

	assert.Greater(t, w.DisplayValue(), l.DisplayValue())
	assert.Greater(t, w.DisplayValue(), model.DefaultRating().DisplayValue())
}

func TestTrueSkillWinnerAboveLoser(t *testing.T) {
	model := NewTrueSkill()
	w, l := model.RecordResult(model.DefaultRating(), model.DefaultRating())

	assert.Greater(t, w.DisplayValue(), l.DisplayValue())
}

func TestOpenSkillCommitWinGuaranteesIncrease(t *testing.T) {
	model := NewOpenSkill()

	// Beating a much weaker opponent yields a tiny raw gain, so the commit
	// policy must fall back to the minimal bump.
	strong := model.DefaultRating().(openskillRating)
	strong.internal.Mu = 50
	strong.internal.Sigma = 0.5
	weak := model.DefaultRating().(openskillRating)
	weak.internal.Mu = 5
	weak.internal.Sigma = 0.5

	posterior, _ := model.RecordResult(strong, weak)
	committed := model.CommitWin(strong, posterior)

	assert.GreaterOrEqual(t, committed.DisplayValue(), strong.DisplayValue()+MinWinIncrease)
}

func TestOpenSkillCommitWinTakesLargePosterior(t *testing.T) {
	model := NewOpenSkill()

	// An even match moves the winner well past the minimum increase.
	prior := model.DefaultRating()
	posterior, _ := model.RecordResult(model.DefaultRating(), model.DefaultRating())
	require.Greater(t, posterior.DisplayValue(), prior.DisplayValue()+MinWinIncrease)

	committed := model.CommitWin(prior, posterior)
	assert.Equal(t, posterior.DisplayValue(), committed.DisplayValue())
}

func TestOpenSkillCommitLossNeverDecreases(t *testing.T) {
	model := NewOpenSkill()

	prior := model.DefaultRating()
	_, posterior := model.RecordResult(model.DefaultRating(), prior)
	require.Less(t, posterior.DisplayValue(), prior.DisplayValue())

	committed := model.CommitLoss(prior, posterior)
	assert.Equal(t, prior.DisplayValue(), committed.DisplayValue())
}

func TestOpenSkillDisplayNeverNegative(t *testing.T) {
	model := NewOpenSkill()

	r := model.DefaultRating().(openskillRating)
	r.internal.Mu = -100

	assert.Equal(t, 0, r.DisplayValue())
}

func TestStrictEligibilityDefaults(t *testing.T) {
	for algorithm, strict := range map[string]bool{
		"elo":       false,
		"glicko":    false,
		"trueskill": false,
		"openskill": true,
	} {
		model, err := New(algorithm)
		require.NoError(t, err)
		assert.Equal(t, strict, model.StrictEligibility(), algorithm)
	}
}
