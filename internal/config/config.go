package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr string
	APIKey     string

	DataDir     string
	DownloadDir string
	UploadDir   string

	SnapshotBackend  string
	JobsFile         string
	SQLitePath       string
	PostgresDSN      string
	RedisAddr        string
	RedisSnapshotKey string

	YTDLPBin     string
	FFmpegBin    string
	WhisperBin   string
	WhisperModel string

	OllamaURL        string
	OllamaModel      string
	AssistantTimeout time.Duration

	DefaultLanguage   string
	MaxContextChars   int
	MaxConcurrentJobs int
	MaxUploadBytes    int64
	ShutdownTimeout   time.Duration
}

// Load reads environment variables. Directory and file defaults hang off DATA_DIR.
func Load() Config {
	dataDir := envOr("DATA_DIR", "./data")

	return Config{
		ServerAddr: envOr("SERVER_ADDR", ":8000"),
		APIKey:     strings.TrimSpace(os.Getenv("API_SECRET_KEY")),

		DataDir:     dataDir,
		DownloadDir: envOr("DOWNLOAD_DIR", filepath.Join(dataDir, "downloads")),
		UploadDir:   envOr("UPLOAD_DIR", filepath.Join(dataDir, "uploads")),

		SnapshotBackend:  strings.ToLower(envOr("SNAPSHOT_BACKEND", BackendFile)),
		JobsFile:         envOr("JOBS_FILE", filepath.Join(dataDir, "jobs.json")),
		SQLitePath:       envOr("SQLITE_PATH", filepath.Join(dataDir, "jobs.db")),
		PostgresDSN:      strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:        strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisSnapshotKey: envOr("REDIS_SNAPSHOT_KEY", "transcripts:jobs"),

		YTDLPBin:     envOr("YTDLP_BIN", "yt-dlp"),
		FFmpegBin:    envOr("FFMPEG_BIN", "ffmpeg"),
		WhisperBin:   envOr("WHISPER_BIN", "whisper-cli"),
		WhisperModel: envOr("WHISPER_MODEL", filepath.Join(dataDir, "models", "ggml-base.bin")),

		OllamaURL:        envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      envOr("OLLAMA_MODEL", "llama3"),
		AssistantTimeout: time.Duration(envIntOr("ASSISTANT_TIMEOUT_SECONDS", 120)) * time.Second,

		DefaultLanguage:   envOr("DEFAULT_LANGUAGE", "ru"),
		MaxContextChars:   envIntOr("MAX_CONTEXT_CHARS", 15000),
		MaxConcurrentJobs: envIntOr("MAX_CONCURRENT_JOBS", 0),
		MaxUploadBytes:    int64(envIntOr("MAX_UPLOAD_MB", 500)) << 20,
		ShutdownTimeout:   time.Duration(envIntOr("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Validate checks that the selected snapshot backend has what it needs.
func (c Config) Validate() error {
	var errs []error

	switch c.SnapshotBackend {
	case BackendFile:
		if c.JobsFile == "" {
			errs = append(errs, errors.New("JOBS_FILE is empty"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is empty"))
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres backend"))
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend))
	}

	if c.MaxContextChars <= 0 {
		errs = append(errs, errors.New("MAX_CONTEXT_CHARS must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// envIntOr returns def for unset, malformed or negative values.
func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
}
