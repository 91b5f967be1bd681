// Package seasons owns the season lifecycle: descriptor files declare which
// ladders exist, and the rotator archives the rolling period once it ends.
package seasons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/rating"
	"ladder-tracker/internal/repository"
)

const dateLayout = "2006-01-02"

// Descriptor is one season as declared in a mod's config file. A rolling
// descriptor may omit its dates; the current rolling period is computed.
type Descriptor struct {
	ID                string `yaml:"id"`
	Title             string `yaml:"title"`
	Group             string `yaml:"group"`
	Algorithm         string `yaml:"algorithm"`
	ReplayPath        string `yaml:"replay_path"`
	Start             string `yaml:"start"`
	End               string `yaml:"end"`
	Active            *bool  `yaml:"active"`
	StrictEligibility *bool  `yaml:"strict_eligibility"`
}

// ModConfig is one config file: a mod and its declared seasons.
type ModConfig struct {
	Mod     string       `yaml:"mod"`
	Seasons []Descriptor `yaml:"seasons"`
}

// LoadConfigDir reads every .yml/.yaml file under dir. A file that fails to
// parse is logged and skipped so one bad descriptor cannot take down the
// whole ladder.
func LoadConfigDir(dir string, logger zerolog.Logger) ([]ModConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read season config dir %s: %w", dir, err)
	}

	var configs []ModConfig
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml")) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var cfg ModConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unparsable season config")
			continue
		}
		if cfg.Mod == "" || len(cfg.Seasons) == 0 {
			logger.Warn().Str("path", path).Msg("skipping season config without mod or seasons")
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Loader merges declared seasons into the season table. Computed results are
// never touched; descriptors are authoritative for metadata only.
type Loader struct {
	repo   *repository.SeasonRepository
	logger zerolog.Logger
	today  func() time.Time
}

func NewLoader(repo *repository.SeasonRepository, logger zerolog.Logger) *Loader {
	return &Loader{repo: repo, logger: logger, today: time.Now}
}

func (l *Loader) Sync(ctx context.Context, configs []ModConfig) error {
	for _, cfg := range configs {
		for _, desc := range cfg.Seasons {
			season, err := l.build(ctx, cfg.Mod, desc)
			if err != nil {
				l.logger.Warn().Err(err).
					Str("mod", cfg.Mod).
					Str("season", desc.ID).
					Msg("skipping invalid season descriptor")
				continue
			}
			if err := l.repo.Upsert(ctx, season); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) build(ctx context.Context, mod string, desc Descriptor) (domain.Season, error) {
	id, err := domain.ParseSeasonID(desc.ID)
	if err != nil {
		return domain.Season{}, err
	}

	model, err := rating.New(desc.Algorithm)
	if err != nil {
		return domain.Season{}, err
	}
	strict := model.StrictEligibility()
	if desc.StrictEligibility != nil {
		strict = *desc.StrictEligibility
	}

	season := domain.Season{
		ID:                id,
		Mod:               mod,
		Title:             desc.Title,
		Group:             desc.Group,
		Algorithm:         desc.Algorithm,
		ReplayPath:        desc.ReplayPath,
		Active:            id.IsRolling(),
		StrictEligibility: strict,
	}
	if desc.Active != nil {
		season.Active = *desc.Active
	}
	if season.Group == "" {
		season.Group = domain.SeasonGroup
	}

	switch {
	case desc.Start != "" && desc.End != "":
		if season.Start, err = time.Parse(dateLayout, desc.Start); err != nil {
			return domain.Season{}, fmt.Errorf("bad start date: %w", err)
		}
		if season.End, err = time.Parse(dateLayout, desc.End); err != nil {
			return domain.Season{}, fmt.Errorf("bad end date: %w", err)
		}
	case id.IsRolling():
		// Rotation owns the rolling bounds once the row exists.
		existing, err := l.repo.Get(ctx, mod, id)
		if err == nil {
			season.Start, season.End = existing.Start, existing.End
			break
		}
		if !errors.Is(err, repository.ErrSeasonNotFound) {
			return domain.Season{}, err
		}
		season.Start, season.End = CurrentRollingPeriod(l.today())
	default:
		return domain.Season{}, fmt.Errorf("archived season %s needs explicit dates", desc.ID)
	}

	if season.End.Before(season.Start) {
		return domain.Season{}, fmt.Errorf("season %s ends before it starts", desc.ID)
	}
	return season, nil
}

// CurrentRollingPeriod returns the two month window containing today,
// aligned on odd months: January and February form one period, March and
// April the next, and so on.
func CurrentRollingPeriod(today time.Time) (start, end time.Time) {
	startMonth := today.Month() - (today.Month()-1)%2
	start = time.Date(today.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 2, -1)
	return start, end
}
