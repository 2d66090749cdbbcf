package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/ai/gemini"
	"github.com/jobscout/jobscout/internal/engine/discovery"
	"github.com/jobscout/jobscout/internal/engine/feedback"
	"github.com/jobscout/jobscout/internal/engine/score"
	"github.com/jobscout/jobscout/internal/logger"
	"github.com/jobscout/jobscout/internal/scheduler"
	"github.com/jobscout/jobscout/internal/secrets"
	"github.com/jobscout/jobscout/internal/server"
	"github.com/jobscout/jobscout/internal/store"
)

const defaultListen = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the jobscout HTTP server and the scheduled discovery sweep",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// engine bundles everything the commands assemble from the config.
type engine struct {
	orchestrator *discovery.Orchestrator
	learner      *feedback.Learner
	scorer       *score.Scorer
	postings     *store.PostingStore
	preferences  *store.PreferenceStore
	profiles     *store.ProfileStore
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting jobscout", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	eng, cleanup, err := buildEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}
	defer cleanup()

	srv := server.New(eng.orchestrator, eng.learner, eng.scorer,
		eng.profiles, eng.preferences, eng.postings, logger)

	listen := defaultListen
	if config.Server != nil && config.Server.Listen != "" {
		listen = config.Server.Listen
	}
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if config.Scheduler != nil && config.Scheduler.Enabled {
		sched := scheduler.New(eng.preferences, eng.profiles, eng.orchestrator,
			config.Scheduler.IntervalHours, logger)
		if err := sched.Start(ctx); err != nil {
			logger.Fatal("starting the scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
}

// buildEngine assembles the stores, the collaborator client and the engine
// components from the config. The returned cleanup closes the connections.
func buildEngine(ctx context.Context, config *Config, log *zap.Logger) (*engine, func(), error) {
	if config.DatabaseURL == "" {
		return nil, nil, errors.New("database-url is required (set DATABASE_URL or the 'database-url' key)")
	}

	pool, err := store.NewPostgresPool(ctx, config.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := pool.Close

	postings := store.NewPostingStore(pool)
	preferences := store.NewPreferenceStore(pool)
	profiles := store.NewProfileStore(pool)

	provider, err := newSearchProvider(ctx, config.AI, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	threshold := 0.0
	if config.Score != nil {
		threshold = config.Score.Threshold
	}
	scorer := score.New(threshold)

	orchestrator := discovery.New(provider, postings, scorer, log).
		WithRunRecorder(preferences)

	if config.RedisURL != "" {
		rdb, err := store.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		poolClose := cleanup
		cleanup = func() {
			_ = rdb.Close()
			poolClose()
		}

		ttl := store.DefaultCacheTTL
		if config.Discovery != nil && config.Discovery.CacheTTLMinutes > 0 {
			ttl = time.Duration(config.Discovery.CacheTTLMinutes) * time.Minute
		}
		orchestrator.WithCache(store.NewResultCache(rdb, ttl))
	}

	learner := feedback.New(postings, preferences, log)

	return &engine{
		orchestrator: orchestrator,
		learner:      learner,
		scorer:       scorer,
		postings:     postings,
		preferences:  preferences,
		profiles:     profiles,
	}, cleanup, nil
}

func newSearchProvider(ctx context.Context, config *AIConfig, log *zap.Logger) (*gemini.Client, error) {
	if config == nil || config.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return gemini.New(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          config.Gemini.Model,
		MaxRetries:     config.Gemini.MaxRetries,
		MaxResults:     config.Gemini.MaxResults,
		MaxLogLength:   config.Gemini.MaxLogLength,
		BreakerEnabled: config.Gemini.BreakerEnabled,
	}, log.With(
		zap.String("provider", "gemini"),
		zap.String("model", config.Gemini.Model),
	))
}
