package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
)

type AccountRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAccountRepository(db *sql.DB, logger zerolog.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

func (r *AccountRepository) Upsert(ctx context.Context, acc domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (fingerprint, profile_id, profile_name, avatar_url, banned)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			profile_id = excluded.profile_id,
			profile_name = excluded.profile_name,
			avatar_url = excluded.avatar_url`,
		acc.Fingerprint, acc.ProfileID, acc.ProfileName, acc.AvatarURL, acc.Banned)
	if err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", acc.Fingerprint, err)
	}
	return nil
}

func (r *AccountRepository) All(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fingerprint, profile_id, profile_name, avatar_url, banned
		FROM accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accs []domain.Account
	for rows.Next() {
		var acc domain.Account
		if err := rows.Scan(&acc.Fingerprint, &acc.ProfileID, &acc.ProfileName, &acc.AvatarURL, &acc.Banned); err != nil {
			return nil, err
		}
		accs = append(accs, acc)
	}
	return accs, rows.Err()
}

// SetBanned rewrites the banned flag of every account from the given set of
// profile ids.
func (r *AccountRepository) SetBanned(ctx context.Context, banned map[int64]bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET banned = 0 WHERE banned != 0`); err != nil {
		return fmt.Errorf("failed to clear ban flags: %w", err)
	}
	for id := range banned {
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET banned = 1 WHERE profile_id = ?`, id); err != nil {
			return fmt.Errorf("failed to flag banned profile %d: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *AccountRepository) BannedProfileIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT profile_id FROM accounts WHERE banned != 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banned := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		banned[id] = true
	}
	return banned, rows.Err()
}
