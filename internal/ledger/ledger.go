// Package ledger holds the run-scoped player registry. A computation run
// owns exactly one Ledger; aggregates are created on first encounter and
// reachable by fingerprint, profile id, or display name.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/rating"
)

// ErrNameNotFound is returned by ByName for a display name never observed
// through a fingerprint or profile id in this run.
var ErrNameNotFound = errors.New("ledger: player name not found")

// Resolver maps a raw fingerprint to a stable identity. A failed resolution
// is reported as an error and never creates an aggregate.
type Resolver interface {
	Resolve(ctx context.Context, fingerprint string) (domain.Account, error)
}

// Player is the mutable in-memory aggregate for one profile within a run.
type Player struct {
	ProfileID int64
	Name      string
	AvatarURL string
	Banned    bool
	Wins      int
	Losses    int
	PrvRating rating.Rating
	Rating    rating.Rating
}

// UpdateRating commits a new rating, remembering the previous one.
func (p *Player) UpdateRating(r rating.Rating) {
	p.PrvRating = p.Rating
	p.Rating = r
}

func (p *Player) Games() int {
	return p.Wins + p.Losses
}

// WinRate returns the share of games won, or 0 when no games were played.
func (p *Player) WinRate() float64 {
	if p.Games() == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Games())
}

// Row projects the aggregate into its persisted column order.
func (p *Player) Row() domain.Player {
	return domain.Player{
		ProfileID: p.ProfileID,
		Name:      p.Name,
		AvatarURL: p.AvatarURL,
		Banned:    p.Banned,
		Wins:      p.Wins,
		Losses:    p.Losses,
		PrvRating: p.PrvRating.DisplayValue(),
		Rating:    p.Rating.DisplayValue(),
	}
}

// Ledger indexes players three ways; all indexes resolve to the same
// aggregate once it exists.
type Ledger struct {
	model    rating.Model
	resolver Resolver

	byID          map[int64]*Player
	byFingerprint map[string]*Player
	byName        map[string]*Player
}

func New(model rating.Model, resolver Resolver) *Ledger {
	return &Ledger{
		model:         model,
		resolver:      resolver,
		byID:          make(map[int64]*Player),
		byFingerprint: make(map[string]*Player),
		byName:        make(map[string]*Player),
	}
}

// ByFingerprint returns the aggregate for a fingerprint, creating it from
// the resolver and the model's default rating on first sight.
func (l *Ledger) ByFingerprint(ctx context.Context, fingerprint string) (*Player, error) {
	if p, ok := l.byFingerprint[fingerprint]; ok {
		return p, nil
	}
	acc, err := l.resolver.Resolve(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint %s: %w", fingerprint, err)
	}
	p := l.insert(acc)
	l.byFingerprint[fingerprint] = p
	return p, nil
}

// Add registers an already-resolved account, returning the existing
// aggregate when the profile is known.
func (l *Ledger) Add(acc domain.Account) *Player {
	p := l.insert(acc)
	if acc.Fingerprint != "" {
		l.byFingerprint[acc.Fingerprint] = p
	}
	return p
}

func (l *Ledger) insert(acc domain.Account) *Player {
	if p, ok := l.byID[acc.ProfileID]; ok {
		return p
	}
	p := &Player{
		ProfileID: acc.ProfileID,
		Name:      acc.ProfileName,
		AvatarURL: acc.AvatarURL,
		Banned:    acc.Banned,
		PrvRating: l.model.DefaultRating(),
		Rating:    l.model.DefaultRating(),
	}
	l.byID[acc.ProfileID] = p
	// first writer wins; names are unique upstream
	if _, ok := l.byName[p.Name]; !ok {
		l.byName[p.Name] = p
	}
	return p
}

// ByID returns the aggregate for a profile id seen earlier in this run.
func (l *Ledger) ByID(profileID int64) (*Player, bool) {
	p, ok := l.byID[profileID]
	return p, ok
}

// ByName looks up by case-sensitive display name.
func (l *Ledger) ByName(name string) (*Player, error) {
	p, ok := l.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNameNotFound, name)
	}
	return p, nil
}

// Players returns every aggregate, ordered by profile id for deterministic
// output.
func (l *Ledger) Players() []*Player {
	out := make([]*Player, 0, len(l.byID))
	for _, p := range l.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProfileID < out[j].ProfileID })
	return out
}

func (l *Ledger) Len() int {
	return len(l.byID)
}
