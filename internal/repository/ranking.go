package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
)

type RankingRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRankingRepository(db *sql.DB, logger zerolog.Logger) *RankingRepository {
	return &RankingRepository{db: db, logger: logger}
}

func (r *RankingRepository) ReplaceSeason(ctx context.Context, mod string, seasonID domain.SeasonID, rows []domain.RankingRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := seasonID.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM ranking WHERE mod = ? AND season_id = ?`, mod, id); err != nil {
		return fmt.Errorf("failed to clear ranking for %s/%s: %w", mod, id, err)
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ranking (profile_id, season_id, mod, eligible, comment,
				wins, losses, rating, difference, rank)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ProfileID, id, mod, row.Eligible, row.Comment,
			row.Wins, row.Losses, row.Rating, row.Difference, row.Rank); err != nil {
			return fmt.Errorf("failed to insert ranking row %d: %w", row.ProfileID, err)
		}
	}

	return tx.Commit()
}

// ForSeason returns a season's ranking ordered best first, ranked players
// before unranked ones.
func (r *RankingRepository) ForSeason(ctx context.Context, mod string, seasonID domain.SeasonID) ([]domain.RankingRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, season_id, mod, eligible, comment, wins, losses, rating, difference, rank
		FROM ranking
		WHERE mod = ? AND season_id = ?
		ORDER BY rank IS NULL ASC, rank ASC, rating DESC, profile_id ASC`,
		mod, seasonID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RankingRow
	for rows.Next() {
		var (
			row   domain.RankingRow
			rawID string
		)
		if err := rows.Scan(&row.ProfileID, &rawID, &row.Mod, &row.Eligible, &row.Comment,
			&row.Wins, &row.Losses, &row.Rating, &row.Difference, &row.Rank); err != nil {
			return nil, err
		}
		row.SeasonID = rawID
		result = append(result, row)
	}
	return result, rows.Err()
}
