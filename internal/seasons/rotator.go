package seasons

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/repository"
)

// Recomputer recomputes one season's standings from its stored games.
type Recomputer interface {
	RecomputeSeason(ctx context.Context, mod string, id domain.SeasonID) error
}

// Rotator archives the rolling season once its end date has passed: the
// rolling row and its computed results are relabeled with the next archive
// sequence, a fresh rolling season is opened, and both are recomputed.
type Rotator struct {
	repo       *repository.SeasonRepository
	recomputer Recomputer
	logger     zerolog.Logger
	today      func() time.Time
}

func NewRotator(repo *repository.SeasonRepository, recomputer Recomputer, logger zerolog.Logger) *Rotator {
	return &Rotator{repo: repo, recomputer: recomputer, logger: logger, today: time.Now}
}

var trailingNumber = regexp.MustCompile(`^(.*?)(\d+)\s*$`)

// Rotate checks the mod's rolling season and rotates it if it has ended.
// Returns whether a rotation happened. Calling it again right after a
// rotation is a no-op because the new rolling season has not ended yet.
func (r *Rotator) Rotate(ctx context.Context, mod string) (bool, error) {
	rolling, err := r.repo.Get(ctx, mod, domain.RollingSeasonID())
	if err != nil {
		if errors.Is(err, repository.ErrSeasonNotFound) {
			return false, nil
		}
		return false, err
	}
	if rolling.Group != domain.SeasonGroup {
		return false, nil
	}

	today := truncateToDay(r.today())
	if !today.After(truncateToDay(rolling.End)) {
		return false, nil
	}

	seq, err := r.nextSequence(ctx, mod)
	if err != nil {
		return false, err
	}

	archived := rolling
	archived.ID = domain.ArchivedSeasonID(seq)
	archived.Active = false
	if err := r.repo.Relabel(ctx, mod, domain.RollingSeasonID(), archived); err != nil {
		return false, err
	}

	next := rolling
	next.Title = bumpTitle(rolling.Title, seq+1)
	next.Start = truncateToDay(rolling.End).AddDate(0, 0, 1)
	next.End = lastDayOfNextMonth(next.Start)
	next.Active = true
	if err := r.repo.Upsert(ctx, next); err != nil {
		return false, err
	}

	r.logger.Info().
		Str("mod", mod).
		Str("archived", archived.ID.String()).
		Str("next_start", next.Start.Format(dateLayout)).
		Str("next_end", next.End.Format(dateLayout)).
		Msg("season rotated")

	if err := r.recomputer.RecomputeSeason(ctx, mod, archived.ID); err != nil {
		return true, err
	}
	return true, r.recomputer.RecomputeSeason(ctx, mod, next.ID)
}

// nextSequence returns one past the highest archived sequence of the mod,
// or 1 when nothing has been archived yet.
func (r *Rotator) nextSequence(ctx context.Context, mod string) (int, error) {
	seasons, err := r.repo.ForMod(ctx, mod)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, s := range seasons {
		if !s.ID.IsRolling() && s.ID.Sequence() > highest {
			highest = s.ID.Sequence()
		}
	}
	return highest + 1, nil
}

// bumpTitle increments a trailing number in the title, so "Season 7" opens
// as "Season 8". Titles without a number fall back to the sequence the new
// rolling season will carry.
func bumpTitle(title string, sequence int) string {
	if m := trailingNumber.FindStringSubmatch(title); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return fmt.Sprintf("%s%d", m[1], n+1)
		}
	}
	return fmt.Sprintf("Season %d", sequence)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func lastDayOfNextMonth(start time.Time) time.Time {
	firstOfStartMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfStartMonth.AddDate(0, 2, -1)
}
