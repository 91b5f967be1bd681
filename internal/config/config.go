package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath            string
	ServerPort        string
	LogLevel          string
	ReplayRoot        string
	SeasonConfigDir   string
	BansFile          string
	AccountAPIBaseURL string
	MaxReplayAgeDays  int
	LockTimeout       time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:            getEnv("DB_PATH", "ladder.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ReplayRoot:        getEnv("REPLAY_ROOT", "replays"),
		SeasonConfigDir:   getEnv("SEASON_CONFIG_DIR", "seasons"),
		BansFile:          getEnv("BANS_FILE", ""),
		AccountAPIBaseURL: getEnv("ACCOUNT_API_BASE_URL", "https://forum.openra.net/openra/info"),
		MaxReplayAgeDays:  getEnvInt("MAX_REPLAY_AGE_DAYS", -1),
		LockTimeout:       getEnvDuration("LOCK_TIMEOUT", time.Second),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("replay_root", cfg.ReplayRoot).
		Str("season_config_dir", cfg.SeasonConfigDir).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
