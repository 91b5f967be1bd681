package accounts

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
)

// ErrMiss indicates the fingerprint could not be resolved this run. A miss is
// never fatal; the affected match is dropped upstream.
var ErrMiss = errors.New("accounts: profile miss")

// Fetcher is the network lookup behind the resolver.
type Fetcher interface {
	Fetch(ctx context.Context, fingerprint string) (domain.Account, error)
}

// Store persists resolved accounts between runs.
type Store interface {
	Upsert(ctx context.Context, acc domain.Account) error
	All(ctx context.Context) ([]domain.Account, error)
}

// Resolver answers fingerprint lookups from a warm cache, falling back to the
// account service exactly once per unknown fingerprint per run. Failed
// lookups are cached negatively for the run so a flaky service is queried at
// most once per fingerprint.
type Resolver struct {
	fetcher Fetcher
	store   Store
	logger  zerolog.Logger

	mu    sync.Mutex
	cache map[string]*domain.Account // nil entry = known miss
}

func NewResolver(fetcher Fetcher, store Store, logger zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		cache:   make(map[string]*domain.Account),
	}
}

// Warm preloads the cache from the persisted accounts table.
func (r *Resolver) Warm(ctx context.Context) error {
	accs, err := r.store.All(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range accs {
		a := acc
		r.cache[acc.Fingerprint] = &a
	}
	r.logger.Debug().Int("accounts", len(accs)).Msg("account cache warmed")
	return nil
}

// Resolve implements ledger.Resolver. Safe for concurrent use.
func (r *Resolver) Resolve(ctx context.Context, fingerprint string) (domain.Account, error) {
	r.mu.Lock()
	if acc, ok := r.cache[fingerprint]; ok {
		r.mu.Unlock()
		if acc == nil {
			return domain.Account{}, ErrMiss
		}
		return *acc, nil
	}
	r.mu.Unlock()

	acc, err := r.fetcher.Fetch(ctx, fingerprint)
	if err != nil {
		r.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("account lookup failed")
		r.mu.Lock()
		r.cache[fingerprint] = nil
		r.mu.Unlock()
		return domain.Account{}, ErrMiss
	}

	if err := r.store.Upsert(ctx, acc); err != nil {
		r.logger.Error().Err(err).Str("fingerprint", fingerprint).Msg("failed to persist account")
		return domain.Account{}, err
	}

	r.mu.Lock()
	a := acc
	r.cache[fingerprint] = &a
	r.mu.Unlock()

	r.logger.Info().
		Str("fingerprint", fingerprint).
		Int64("profile_id", acc.ProfileID).
		Str("profile_name", acc.ProfileName).
		Msg("resolved new account")
	return acc, nil
}
