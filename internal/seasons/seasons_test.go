package seasons

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder-tracker/internal/database"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/repository"
)

func testRepo(t *testing.T) (*repository.SeasonRepository, *sql.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ladder.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewSeasonRepository(db, zerolog.Nop()), db
}

func fixedDay(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 15, 30, 0, 0, time.UTC) }
}

func TestCurrentRollingPeriod(t *testing.T) {
	cases := []struct {
		today      time.Time
		start, end string
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-01-01", "2026-02-28"},
		{time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), "2026-01-01", "2026-02-28"},
		{time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "2026-03-01", "2026-04-30"},
		{time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC), "2026-11-01", "2026-12-31"},
	}
	for _, tc := range cases {
		start, end := CurrentRollingPeriod(tc.today)
		assert.Equal(t, tc.start, start.Format(dateLayout), tc.today)
		assert.Equal(t, tc.end, end.Format(dateLayout), tc.today)
	}
}

func TestLoadConfigDirSkipsBroken(t *testing.T) {
	dir := t.TempDir()
	good := "mod: ra\nseasons:\n  - id: 2m\n    title: Season 7\n    algorithm: openskill\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ra.yml"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("mod: [unclosed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	configs, err := LoadConfigDir(dir, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "ra", configs[0].Mod)
	require.Len(t, configs[0].Seasons, 1)
	assert.Equal(t, "2m", configs[0].Seasons[0].ID)
}

func TestLoaderSyncRollingDefaults(t *testing.T) {
	repo, _ := testRepo(t)
	loader := NewLoader(repo, zerolog.Nop())
	loader.today = fixedDay(2026, 3, 10)

	err := loader.Sync(context.Background(), []ModConfig{{
		Mod: "ra",
		Seasons: []Descriptor{
			{ID: "2m", Title: "Season 7", Algorithm: "openskill"},
			{ID: "s06", Title: "Season 6", Algorithm: "openskill", Start: "2026-01-01", End: "2026-02-28"},
			{ID: "s05", Title: "bogus", Algorithm: "no-such-algorithm", Start: "2025-11-01", End: "2025-12-31"},
		},
	}})
	require.NoError(t, err)

	rolling, err := repo.Get(context.Background(), "ra", domain.RollingSeasonID())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", rolling.Start.Format(dateLayout))
	assert.Equal(t, "2026-04-30", rolling.End.Format(dateLayout))
	assert.True(t, rolling.Active)
	assert.True(t, rolling.StrictEligibility, "openskill defaults to strict")
	assert.Equal(t, domain.SeasonGroup, rolling.Group)

	archived, err := repo.Get(context.Background(), "ra", domain.ArchivedSeasonID(6))
	require.NoError(t, err)
	assert.False(t, archived.Active)

	// The invalid descriptor is skipped, not fatal.
	_, err = repo.Get(context.Background(), "ra", domain.ArchivedSeasonID(5))
	assert.ErrorIs(t, err, repository.ErrSeasonNotFound)
}

func TestLoaderSyncPreservesRotatedBounds(t *testing.T) {
	repo, _ := testRepo(t)
	loader := NewLoader(repo, zerolog.Nop())
	loader.today = fixedDay(2026, 3, 10)

	existing := domain.Season{
		ID: domain.RollingSeasonID(), Mod: "ra", Title: "Season 7",
		Group: domain.SeasonGroup, Algorithm: "openskill",
		Start:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Active: true, StrictEligibility: true,
	}
	require.NoError(t, repo.Upsert(context.Background(), existing))

	err := loader.Sync(context.Background(), []ModConfig{{
		Mod:     "ra",
		Seasons: []Descriptor{{ID: "2m", Title: "Season 7", Algorithm: "openskill"}},
	}})
	require.NoError(t, err)

	rolling, err := repo.Get(context.Background(), "ra", domain.RollingSeasonID())
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", rolling.Start.Format(dateLayout))
	assert.Equal(t, "2026-03-31", rolling.End.Format(dateLayout))
}

func TestLoaderSyncActiveOverride(t *testing.T) {
	repo, _ := testRepo(t)
	loader := NewLoader(repo, zerolog.Nop())
	loader.today = fixedDay(2026, 3, 10)

	active := true
	err := loader.Sync(context.Background(), []ModConfig{{
		Mod: "ra",
		Seasons: []Descriptor{{
			ID: "s06", Title: "Season 6", Algorithm: "elo",
			Start: "2026-01-01", End: "2026-02-28", Active: &active,
		}},
	}})
	require.NoError(t, err)

	season, err := repo.Get(context.Background(), "ra", domain.ArchivedSeasonID(6))
	require.NoError(t, err)
	assert.True(t, season.Active)
}

type recordingRecomputer struct {
	calls []string
}

func (r *recordingRecomputer) RecomputeSeason(_ context.Context, mod string, id domain.SeasonID) error {
	r.calls = append(r.calls, mod+"/"+id.String())
	return nil
}

func seedRolling(t *testing.T, repo *repository.SeasonRepository, end time.Time) domain.Season {
	t.Helper()
	season := domain.Season{
		ID: domain.RollingSeasonID(), Mod: "ra", Title: "Season 7",
		Group: domain.SeasonGroup, Algorithm: "openskill",
		Start:  end.AddDate(0, -2, 1),
		End:    end,
		Active: true, StrictEligibility: true,
	}
	require.NoError(t, repo.Upsert(context.Background(), season))
	return season
}

func TestRotateBeforeBoundaryIsNoop(t *testing.T) {
	repo, _ := testRepo(t)
	seedRolling(t, repo, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))

	rec := &recordingRecomputer{}
	rot := NewRotator(repo, rec, zerolog.Nop())
	rot.today = fixedDay(2026, 4, 30)

	rotated, err := rot.Rotate(context.Background(), "ra")
	require.NoError(t, err)
	assert.False(t, rotated)
	assert.Empty(t, rec.calls)
}

func TestRotateArchivesAndOpensNext(t *testing.T) {
	repo, db := testRepo(t)
	seedRolling(t, repo, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Upsert(context.Background(), domain.Season{
		ID: domain.ArchivedSeasonID(6), Mod: "ra", Title: "Season 6",
		Group: domain.SeasonGroup, Algorithm: "openskill",
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	}))

	// A computed row that must follow the season to its archived id.
	_, err := db.Exec(`INSERT INTO players (profile_id, mod, season_id, profile_name) VALUES (10, 'ra', '2m', 'tiger')`)
	require.NoError(t, err)

	rec := &recordingRecomputer{}
	rot := NewRotator(repo, rec, zerolog.Nop())
	rot.today = fixedDay(2026, 5, 1)

	rotated, err := rot.Rotate(context.Background(), "ra")
	require.NoError(t, err)
	assert.True(t, rotated)

	archived, err := repo.Get(context.Background(), "ra", domain.ArchivedSeasonID(7))
	require.NoError(t, err)
	assert.Equal(t, "Season 7", archived.Title)
	assert.False(t, archived.Active)
	assert.Equal(t, "2026-04-30", archived.End.Format(dateLayout))

	rolling, err := repo.Get(context.Background(), "ra", domain.RollingSeasonID())
	require.NoError(t, err)
	assert.Equal(t, "Season 8", rolling.Title)
	assert.Equal(t, "2026-05-01", rolling.Start.Format(dateLayout))
	assert.Equal(t, "2026-06-30", rolling.End.Format(dateLayout))
	assert.True(t, rolling.Active)

	var seasonID string
	require.NoError(t, db.QueryRow(`SELECT season_id FROM players WHERE profile_id = 10`).Scan(&seasonID))
	assert.Equal(t, "s07", seasonID)

	assert.Equal(t, []string{"ra/s07", "ra/2m"}, rec.calls)

	// The fresh rolling season has not ended, so rotating again is a no-op.
	rotated, err = rot.Rotate(context.Background(), "ra")
	require.NoError(t, err)
	assert.False(t, rotated)
}

func TestRotateSkipsNonSeasonGroups(t *testing.T) {
	repo, _ := testRepo(t)
	season := seedRolling(t, repo, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC))
	season.Group = "all-time"
	require.NoError(t, repo.Upsert(context.Background(), season))

	rec := &recordingRecomputer{}
	rot := NewRotator(repo, rec, zerolog.Nop())
	rot.today = fixedDay(2026, 5, 1)

	rotated, err := rot.Rotate(context.Background(), "ra")
	require.NoError(t, err)
	assert.False(t, rotated)
}

func TestBumpTitle(t *testing.T) {
	assert.Equal(t, "Season 8", bumpTitle("Season 7", 8))
	assert.Equal(t, "RA Ladder 10", bumpTitle("RA Ladder 9", 8))
	assert.Equal(t, "Season 8", bumpTitle("The Big One", 8))
}
