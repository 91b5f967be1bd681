// Package ingest discovers match sources on disk and turns them into
// accepted game rows. The pipeline is idempotent: sources already accepted
// or quarantined are skipped, and every accepted game is keyed by a content
// hash derived from its filename.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ladder-tracker/internal/accounts"
	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/replay"
)

// GameStore is the persistence surface the pipeline writes through.
type GameStore interface {
	UpsertBatch(ctx context.Context, games []domain.Game) (int, error)
	KnownFilenames(ctx context.Context) (map[string]bool, error)
	BrokenFilenames(ctx context.Context) (map[string]bool, error)
	Quarantine(ctx context.Context, filenames []string, parseDate time.Time) error
}

// Resolver maps source fingerprints to registered accounts.
type Resolver interface {
	Resolve(ctx context.Context, fingerprint string) (domain.Account, error)
}

type Pipeline struct {
	decoder    replay.Decoder
	resolver   Resolver
	games      GameStore
	logger     zerolog.Logger
	maxAgeDays int
	now        func() time.Time
}

func NewPipeline(decoder replay.Decoder, resolver Resolver, games GameStore, maxAgeDays int, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		decoder:    decoder,
		resolver:   resolver,
		games:      games,
		logger:     logger,
		maxAgeDays: maxAgeDays,
		now:        time.Now,
	}
}

// Ingest walks root for match sources of the given mod and persists every new
// decodable one. Undecodable sources are quarantined unless they carry
// today's or yesterday's date in their path, which usually means the file is
// still being written.
func (p *Pipeline) Ingest(ctx context.Context, mod, root string) (domain.IngestReport, error) {
	started := p.now()
	runID, err := gonanoid.New()
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("failed to generate run id: %w", err)
	}
	report := domain.IngestReport{RunID: runID}
	logger := p.logger.With().Str("run_id", runID).Str("mod", mod).Logger()

	known, err := p.games.KnownFilenames(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load known sources: %w", err)
	}
	broken, err := p.games.BrokenFilenames(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load quarantined sources: %w", err)
	}

	candidates, err := p.discover(root, known, broken)
	if err != nil {
		return report, err
	}
	logger.Info().Int("candidates", len(candidates)).Msg("ingestion started")

	var (
		accepted    []domain.Game
		quarantined []string
	)
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := p.decoder.Decode(path)
		if err != nil {
			var derr *replay.DecodeError
			if !errors.As(err, &derr) {
				return report, err
			}
			if p.recentByName(path) {
				logger.Debug().Str("path", path).Msg("skipping fresh undecodable source")
				continue
			}
			logger.Warn().Err(err).Str("path", path).Msg("quarantining undecodable source")
			quarantined = append(quarantined, path)
			continue
		}

		if result.Mod != mod {
			report.Dropped++
			continue
		}

		game, err := p.buildGame(ctx, result)
		if err != nil {
			if errors.Is(err, accounts.ErrMiss) {
				logger.Debug().Str("path", path).Msg("dropping source with unresolved participant")
				report.Dropped++
				continue
			}
			return report, err
		}
		accepted = append(accepted, game)
	}

	inserted, err := p.games.UpsertBatch(ctx, accepted)
	if err != nil {
		return report, fmt.Errorf("failed to persist games: %w", err)
	}
	if err := p.games.Quarantine(ctx, quarantined, p.now()); err != nil {
		return report, fmt.Errorf("failed to quarantine sources: %w", err)
	}

	report.Accepted = inserted
	report.Quarantined = len(quarantined)
	report.Elapsed = p.now().Sub(started)
	logger.Info().
		Int("accepted", report.Accepted).
		Int("dropped", report.Dropped).
		Int("quarantined", report.Quarantined).
		Dur("elapsed", report.Elapsed).
		Msg("ingestion finished")
	return report, nil
}

// discover lists candidate sources under root, newest last for stable
// processing order, skipping anything already accepted or quarantined and,
// when an age cap is configured, anything older than it.
func (p *Pipeline) discover(root string, known, broken map[string]bool) ([]string, error) {
	var cutoff time.Time
	if p.maxAgeDays >= 0 {
		cutoff = p.now().AddDate(0, 0, -p.maxAgeDays)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), replay.Extension) {
			return nil
		}
		if known[path] || broken[path] {
			return nil
		}
		if !cutoff.IsZero() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.ModTime().Before(cutoff) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return paths, nil
}

// buildGame resolves both participants in parallel and assembles the accepted
// record. ProfileID0 is the winner.
func (p *Pipeline) buildGame(ctx context.Context, result *replay.Result) (domain.Game, error) {
	var winner, loser domain.Account
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		winner, err = p.resolver.Resolve(gctx, result.Player0.Fingerprint)
		return err
	})
	g.Go(func() error {
		var err error
		loser, err = p.resolver.Resolve(gctx, result.Player1.Fingerprint)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Game{}, err
	}

	return domain.Game{
		Hash:             HashFilename(result.Filename),
		Mod:              result.Mod,
		StartTime:        result.StartTime,
		EndTime:          result.EndTime,
		Filename:         result.Filename,
		ProfileID0:       winner.ProfileID,
		ProfileID1:       loser.ProfileID,
		Faction0:         result.Player0.Faction,
		Faction1:         result.Player1.Faction,
		SelectedFaction0: result.Player0.SelectedFaction,
		SelectedFaction1: result.Player1.SelectedFaction,
		MapUID:           result.MapUID,
		MapTitle:         result.MapTitle,
	}, nil
}

// recentByName reports whether the path embeds today's or yesterday's date.
// Source filenames carry their capture timestamp, so a fresh date means the
// recorder may still be flushing the file.
func (p *Pipeline) recentByName(path string) bool {
	now := p.now()
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	return strings.Contains(path, today) || strings.Contains(path, yesterday)
}

// HashFilename derives the stable content key of an accepted game.
func HashFilename(filename string) string {
	sum := sha256.Sum256([]byte(filename))
	return hex.EncodeToString(sum[:])
}
