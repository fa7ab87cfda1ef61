// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"transcript-service/internal/assistant"
	"transcript-service/internal/config"
	"transcript-service/internal/media"
	"transcript-service/internal/repository/filesystem"
	"transcript-service/internal/repository/memory"
	"transcript-service/internal/repository/postgresql"
	redisrepo "transcript-service/internal/repository/redis"
	"transcript-service/internal/repository/sqlite"
	"transcript-service/internal/service"
	"transcript-service/internal/transcribe"
	httptransport "transcript-service/internal/transport/http"
	"transcript-service/internal/worker"
)

// @title transcript-service API
// @version 1.0
// @description Media transcription jobs with follow-up questions about the transcript.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.DownloadDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	snap, closeSnap := mustSnapshotter(ctx, cfg)
	defer closeSnap()

	// DI
	repo := memory.NewJobRepository(ctx, snap, log.Default())

	whisper := transcribe.NewWhisper(cfg.FFmpegBin, cfg.WhisperBin, cfg.WhisperModel, nil)
	if err := whisper.Check(); err != nil {
		// jobs will fail at the transcription stage until this is fixed
		log.Printf("[server] transcriber not ready: %v", err)
	}
	source := media.NewYTDLPSource(cfg.YTDLPBin, cfg.DownloadDir, nil)
	ollama := assistant.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.AssistantTimeout)

	processor := worker.NewProcessor(repo, source, whisper, log.Default())
	pool := worker.NewPool(processor, cfg.MaxConcurrentJobs, log.Default())

	jobSvc := service.NewJobService(repo, pool, ollama, service.Options{
		DefaultLanguage: cfg.DefaultLanguage,
		MaxContextChars: cfg.MaxContextChars,
	}, log.Default())

	uploads := media.NewUploadStore(cfg.UploadDir, cfg.MaxUploadBytes)
	h := httptransport.NewHandler(jobSvc, uploads, cfg.MaxUploadBytes, log.Default())

	if cfg.APIKey == "" {
		log.Println("[server] WARNING: API_SECRET_KEY is not set, /api is open to anyone")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           c.Handler(httptransport.Routes(h, cfg.APIKey)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[server] config addr=%s backend=%s max_concurrent_jobs=%d whisper_model=%s ollama=%s/%s postgres_dsn=%s",
		cfg.ServerAddr, cfg.SnapshotBackend, cfg.MaxConcurrentJobs, cfg.WhisperModel,
		cfg.OllamaURL, ollama.Model(), redactDSN(cfg.PostgresDSN),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server started: addr=%s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Printf("[server] listen error=%v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] http shutdown error=%v", err)
	}
	// in-flight jobs not finished by now are recovered as interrupted on next start
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] pool shutdown error=%v running=%d", err, pool.Running())
	}

	log.Println("server stopped")
}

// mustSnapshotter opens the configured snapshot backend.
func mustSnapshotter(ctx context.Context, cfg config.Config) (memory.Snapshotter, func()) {
	switch cfg.SnapshotBackend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		repo, err := sqlite.NewSnapshotRepository(ctx, db)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		return repo, func() { _ = db.Close() }

	case config.BackendPostgres:
		pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("pg: %v", err)
		}
		repo := postgresql.NewSnapshotRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("pg schema: %v", err)
		}
		return repo, pool.Close

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		return redisrepo.NewSnapshotRepository(rdb, cfg.RedisSnapshotKey), func() { _ = rdb.Close() }

	default:
		return filesystem.NewSnapshotRepository(cfg.JobsFile), func() {}
	}
}

func redactDSN(dsn string) string {
	// user:pass@ -> user:****@, DSNs without a password are left as is
	re := regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)
	return re.ReplaceAllString(dsn, `://$1:****@`)
}
