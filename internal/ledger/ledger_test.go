package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/rating"
)

type fakeResolver struct {
	accounts map[string]domain.Account
	calls    int
}

func (f *fakeResolver) Resolve(_ context.Context, fingerprint string) (domain.Account, error) {
	f.calls++
	acc, ok := f.accounts[fingerprint]
	if !ok {
		return domain.Account{}, errors.New("miss")
	}
	return acc, nil
}

func newTestLedger(t *testing.T, resolver Resolver) *Ledger {
	t.Helper()
	model, err := rating.New("elo")
	require.NoError(t, err)
	return New(model, resolver)
}

func TestByFingerprintCreatesOnce(t *testing.T) {
	resolver := &fakeResolver{accounts: map[string]domain.Account{
		"fp-1": {Fingerprint: "fp-1", ProfileID: 10, ProfileName: "tiger"},
	}}
	led := newTestLedger(t, resolver)

	p1, err := led.ByFingerprint(context.Background(), "fp-1")
	require.NoError(t, err)
	p2, err := led.ByFingerprint(context.Background(), "fp-1")
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 1, led.Len())
}

func TestAllIndexesResolveToSameAggregate(t *testing.T) {
	resolver := &fakeResolver{accounts: map[string]domain.Account{
		"fp-1": {Fingerprint: "fp-1", ProfileID: 10, ProfileName: "tiger"},
	}}
	led := newTestLedger(t, resolver)

	byFp, err := led.ByFingerprint(context.Background(), "fp-1")
	require.NoError(t, err)
	byID, ok := led.ByID(10)
	require.True(t, ok)
	byName, err := led.ByName("tiger")
	require.NoError(t, err)

	assert.Same(t, byFp, byID)
	assert.Same(t, byFp, byName)
}

func TestByNameUnknown(t *testing.T) {
	led := newTestLedger(t, &fakeResolver{})
	_, err := led.ByName("nobody")
	assert.ErrorIs(t, err, ErrNameNotFound)
}

func TestResolveFailureCreatesNothing(t *testing.T) {
	led := newTestLedger(t, &fakeResolver{})
	_, err := led.ByFingerprint(context.Background(), "fp-x")
	assert.Error(t, err)
	assert.Zero(t, led.Len())
}

func TestAddIsIdempotentPerProfile(t *testing.T) {
	led := newTestLedger(t, &fakeResolver{})

	a := led.Add(domain.Account{Fingerprint: "fp-1", ProfileID: 10, ProfileName: "tiger"})
	b := led.Add(domain.Account{Fingerprint: "fp-2", ProfileID: 10, ProfileName: "tiger"})

	assert.Same(t, a, b)
	assert.Equal(t, 1, led.Len())
}

func TestPlayersOrderedByProfileID(t *testing.T) {
	led := newTestLedger(t, &fakeResolver{})
	led.Add(domain.Account{ProfileID: 30, ProfileName: "c"})
	led.Add(domain.Account{ProfileID: 10, ProfileName: "a"})
	led.Add(domain.Account{ProfileID: 20, ProfileName: "b"})

	players := led.Players()
	require.Len(t, players, 3)
	assert.Equal(t, int64(10), players[0].ProfileID)
	assert.Equal(t, int64(20), players[1].ProfileID)
	assert.Equal(t, int64(30), players[2].ProfileID)
}

func TestUpdateRatingKeepsPrevious(t *testing.T) {
	model, err := rating.New("elo")
	require.NoError(t, err)
	led := New(model, &fakeResolver{})

	p := led.Add(domain.Account{ProfileID: 10, ProfileName: "tiger"})
	before := p.Rating
	next, _ := model.RecordResult(p.Rating, model.DefaultRating())
	p.UpdateRating(next)

	assert.Equal(t, before.DisplayValue(), p.PrvRating.DisplayValue())
	assert.Equal(t, next.DisplayValue(), p.Rating.DisplayValue())
}
