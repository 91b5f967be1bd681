package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
)

const seasonDateLayout = "2006-01-02"

var ErrSeasonNotFound = errors.New("season not found")

type SeasonRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSeasonRepository(db *sql.DB, logger zerolog.Logger) *SeasonRepository {
	return &SeasonRepository{db: db, logger: logger}
}

const seasonColumns = `mod, id, title, season_group, algorithm, replay_path, start, end, active, strict_eligibility`

func (r *SeasonRepository) All(ctx context.Context) ([]domain.Season, error) {
	return r.query(ctx, `SELECT `+seasonColumns+` FROM season ORDER BY mod ASC, id ASC`)
}

func (r *SeasonRepository) ForMod(ctx context.Context, mod string) ([]domain.Season, error) {
	return r.query(ctx, `SELECT `+seasonColumns+` FROM season WHERE mod = ? ORDER BY id ASC`, mod)
}

func (r *SeasonRepository) Get(ctx context.Context, mod string, id domain.SeasonID) (domain.Season, error) {
	seasons, err := r.query(ctx, `SELECT `+seasonColumns+` FROM season WHERE mod = ? AND id = ?`, mod, id.String())
	if err != nil {
		return domain.Season{}, err
	}
	if len(seasons) == 0 {
		return domain.Season{}, fmt.Errorf("%w: %s/%s", ErrSeasonNotFound, mod, id)
	}
	return seasons[0], nil
}

// Upsert replaces the stored season row with the given one. Descriptors are
// authoritative for everything but computed results, so a full rewrite is
// safe.
func (r *SeasonRepository) Upsert(ctx context.Context, s domain.Season) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO season (`+seasonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (mod, id) DO UPDATE SET
			title = excluded.title,
			season_group = excluded.season_group,
			algorithm = excluded.algorithm,
			replay_path = excluded.replay_path,
			start = excluded.start,
			end = excluded.end,
			active = excluded.active,
			strict_eligibility = excluded.strict_eligibility`,
		s.Mod, s.ID.String(), s.Title, s.Group, s.Algorithm, s.ReplayPath,
		s.Start.Format(seasonDateLayout), s.End.Format(seasonDateLayout),
		s.Active, s.StrictEligibility)
	if err != nil {
		return fmt.Errorf("failed to upsert season %s/%s: %w", s.Mod, s.ID, err)
	}
	return nil
}

// Relabel atomically renames a season and rewrites its title, bounds and
// activity flag. Rotation uses it to turn the rolling season into an archived
// one while its computed rows are renamed in the same transaction.
func (r *SeasonRepository) Relabel(ctx context.Context, mod string, from domain.SeasonID, to domain.Season) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE season SET id = ?, title = ?, start = ?, end = ?, active = ?
		WHERE mod = ? AND id = ?`,
		to.ID.String(), to.Title,
		to.Start.Format(seasonDateLayout), to.End.Format(seasonDateLayout),
		to.Active, mod, from.String())
	if err != nil {
		return fmt.Errorf("failed to relabel season %s/%s: %w", mod, from, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrSeasonNotFound, mod, from)
	}

	for _, table := range []string{"players", "outcomes", "rating", "ranking"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET season_id = ? WHERE mod = ? AND season_id = ?`, table),
			to.ID.String(), mod, from.String()); err != nil {
			return fmt.Errorf("failed to relabel %s rows for %s/%s: %w", table, mod, from, err)
		}
	}

	return tx.Commit()
}

func (r *SeasonRepository) SetActive(ctx context.Context, mod string, id domain.SeasonID, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE season SET active = ? WHERE mod = ? AND id = ?`,
		active, mod, id.String())
	if err != nil {
		return fmt.Errorf("failed to set active flag on %s/%s: %w", mod, id, err)
	}
	return nil
}

func (r *SeasonRepository) query(ctx context.Context, query string, args ...any) ([]domain.Season, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []domain.Season
	for rows.Next() {
		var (
			s        domain.Season
			rawID    string
			rawStart string
			rawEnd   string
		)
		if err := rows.Scan(&s.Mod, &rawID, &s.Title, &s.Group, &s.Algorithm,
			&s.ReplayPath, &rawStart, &rawEnd, &s.Active, &s.StrictEligibility); err != nil {
			return nil, err
		}
		if s.ID, err = domain.ParseSeasonID(rawID); err != nil {
			return nil, err
		}
		if s.Start, err = time.Parse(seasonDateLayout, rawStart); err != nil {
			return nil, fmt.Errorf("bad start date on season %s/%s: %w", s.Mod, rawID, err)
		}
		if s.End, err = time.Parse(seasonDateLayout, rawEnd); err != nil {
			return nil, fmt.Errorf("bad end date on season %s/%s: %w", s.Mod, rawID, err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}
