package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/constants"
	"ladder-tracker/internal/domain"
)

type GameRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGameRepository(db *sql.DB, logger zerolog.Logger) *GameRepository {
	return &GameRepository{db: db, logger: logger}
}

// UpsertBatch inserts accepted games; a hash already present is left
// untouched, so re-ingesting a known source is a no-op.
func (r *GameRepository) UpsertBatch(ctx context.Context, games []domain.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for i := 0; i < len(games); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(games) {
			end = len(games)
		}
		for _, g := range games[i:end] {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO game (hash, mod, start_time, end_time, filename,
					profile_id0, profile_id1, faction_0, faction_1,
					selected_faction_0, selected_faction_1, map_uid, map_title)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (hash) DO NOTHING`,
				g.Hash, g.Mod, g.StartTime, g.EndTime, g.Filename,
				g.ProfileID0, g.ProfileID1, g.Faction0, g.Faction1,
				g.SelectedFaction0, g.SelectedFaction1, g.MapUID, g.MapTitle)
			if err != nil {
				return 0, fmt.Errorf("failed to upsert game %s: %w", g.Hash, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}

	return inserted, tx.Commit()
}

// KnownFilenames returns the source paths of every accepted game.
func (r *GameRepository) KnownFilenames(ctx context.Context) (map[string]bool, error) {
	return r.filenameSet(ctx, `SELECT filename FROM game`)
}

// BrokenFilenames returns the source paths quarantined by earlier runs.
func (r *GameRepository) BrokenFilenames(ctx context.Context) (map[string]bool, error) {
	return r.filenameSet(ctx, `SELECT filename FROM broken_replays`)
}

func (r *GameRepository) filenameSet(ctx context.Context, query string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		set[name] = true
	}
	return set, rows.Err()
}

// Quarantine records sources that failed to decode so later runs skip them.
func (r *GameRepository) Quarantine(ctx context.Context, filenames []string, parseDate time.Time) error {
	if len(filenames) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	date := parseDate.Format("2006-01-02")
	for _, name := range filenames {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO broken_replays (filename, parse_date) VALUES (?, ?)
			ON CONFLICT (filename) DO UPDATE SET parse_date = excluded.parse_date`,
			name, date); err != nil {
			return fmt.Errorf("failed to quarantine %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// ForSeason returns a mod's games whose end time falls in [start, endExcl),
// ordered by end time then hash for deterministic computation.
func (r *GameRepository) ForSeason(ctx context.Context, mod string, start, endExcl time.Time) ([]domain.Game, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hash, mod, start_time, end_time, filename,
			profile_id0, profile_id1, faction_0, faction_1,
			selected_faction_0, selected_faction_1, map_uid, map_title
		FROM game
		WHERE mod = ? AND end_time >= ? AND end_time < ?
		ORDER BY end_time ASC, hash ASC`,
		mod, start, endExcl)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(&g.Hash, &g.Mod, &g.StartTime, &g.EndTime, &g.Filename,
			&g.ProfileID0, &g.ProfileID1, &g.Faction0, &g.Faction1,
			&g.SelectedFaction0, &g.SelectedFaction1, &g.MapUID, &g.MapTitle); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
