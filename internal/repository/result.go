package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
)

// ResultRepository persists the recomputed output of a season. Every write
// replaces the season's whole range so recomputation from the same inputs is
// idempotent.
type ResultRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewResultRepository(db *sql.DB, logger zerolog.Logger) *ResultRepository {
	return &ResultRepository{db: db, logger: logger}
}

func (r *ResultRepository) ReplaceSeason(ctx context.Context, mod string, seasonID domain.SeasonID,
	players []domain.Player, outcomes []domain.Outcome, ratings []domain.RatingRow) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := seasonID.String()
	for _, table := range []string{"players", "outcomes", "rating"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE mod = ? AND season_id = ?`, table), mod, id); err != nil {
			return fmt.Errorf("failed to clear %s for %s/%s: %w", table, mod, id, err)
		}
	}

	for _, p := range players {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players (profile_id, mod, season_id, profile_name, avatar_url,
				banned, wins, losses, prv_rating, rating)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ProfileID, mod, id, p.Name, p.AvatarURL,
			p.Banned, p.Wins, p.Losses, p.PrvRating, p.Rating); err != nil {
			return fmt.Errorf("failed to insert player %d: %w", p.ProfileID, err)
		}
	}

	for _, o := range outcomes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (hash, mod, season_id, start_time, end_time, filename,
				profile_id0, profile_id1, rating0_pre, rating1_pre, rating0_post, rating1_post,
				faction_0, faction_1, selected_faction_0, selected_faction_1, map_uid, map_title)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.Hash, mod, id, o.StartTime, o.EndTime, o.Filename,
			o.ProfileID0, o.ProfileID1, o.Rating0Pre, o.Rating1Pre, o.Rating0Post, o.Rating1Post,
			o.Faction0, o.Faction1, o.SelectedFaction0, o.SelectedFaction1, o.MapUID, o.MapTitle); err != nil {
			return fmt.Errorf("failed to insert outcome %s: %w", o.Hash, err)
		}
	}

	for _, rt := range ratings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rating (replay_hash, season_id, mod, profile_id, value, difference)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rt.ReplayHash, id, mod, rt.ProfileID, rt.Value, rt.Difference); err != nil {
			return fmt.Errorf("failed to insert rating row %s/%d: %w", rt.ReplayHash, rt.ProfileID, err)
		}
	}

	r.logger.Debug().
		Str("mod", mod).
		Str("season", id).
		Int("players", len(players)).
		Int("outcomes", len(outcomes)).
		Msg("season results replaced")

	return tx.Commit()
}

// PlayersForSeason returns a season's player rows ordered by rating for
// inspection and ranking.
func (r *ResultRepository) PlayersForSeason(ctx context.Context, mod string, seasonID domain.SeasonID) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, profile_name, avatar_url, banned, wins, losses, prv_rating, rating
		FROM players
		WHERE mod = ? AND season_id = ?
		ORDER BY rating DESC, profile_id ASC`,
		mod, seasonID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ProfileID, &p.Name, &p.AvatarURL, &p.Banned,
			&p.Wins, &p.Losses, &p.PrvRating, &p.Rating); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
