package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"POSTGRES_HOST" default:"postgres"`
	DBPort int    `envconfig:"POSTGRES_PORT" default:"5432"`
	DBUser string `envconfig:"POSTGRES_USER" default:"tubetalk"`
	DBPass string `envconfig:"POSTGRES_PASSWORD" default:"password"`
	DBName string `envconfig:"POSTGRES_DB" default:"tubetalk"`

	OllamaAPI   string `envconfig:"OLLAMA_API" default:"http://ollama:11434/api/chat"`
	OllamaModel string `envconfig:"OLLAMA_MODEL" default:"llama3"`

	WhisperURL   string `envconfig:"WHISPER_URL" default:"http://whisper:8000"`
	WhisperModel string `envconfig:"WHISPER_MODEL" default:"base"`

	YtdlpPath string `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	AudioDir  string `envconfig:"AUDIO_DIR" default:"downloads"`

	// Chat chunking. Budget is the maximum characters per transcript
	// segment; overlap is carried between consecutive segments.
	ChunkBudget  int `envconfig:"CHUNK_BUDGET" default:"6000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"1"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"5050"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root.
	// Ignore errors, as env vars might be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: POSTGRES_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: POSTGRES_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: POSTGRES_DB", ErrMissingRequired)
	}
	if c.OllamaAPI == "" {
		return fmt.Errorf("%w: OLLAMA_API", ErrMissingRequired)
	}
	if c.OllamaModel == "" {
		return fmt.Errorf("%w: OLLAMA_MODEL", ErrMissingRequired)
	}
	if c.ChunkBudget <= c.ChunkOverlap {
		return fmt.Errorf("CHUNK_BUDGET (%d) must be greater than CHUNK_OVERLAP (%d)", c.ChunkBudget, c.ChunkOverlap)
	}
	return nil
}
