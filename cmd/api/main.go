package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/cache"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/http/handlers"
	httpapi "github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/http/httpapi"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/infra"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/infra/geoip"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/analysis"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/genai"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/hairstyle"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/providers/qwen"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/storage"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/store"
	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/studio"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	app := &handlers.App{Config: cfg, Logger: logger}

	// Postgres is optional: without it sessions live only in memory and the
	// history routes answer 503.
	var history *store.History
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		history = store.NewHistory(infra.NewSQLRunner(pool, logger))
		app.History = history
	}

	// Redis is optional and only backs the analysis cache.
	var analysisCache cache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		analysisCache = cache.NewRedisCache(rdb)
	}

	// The GeoIP database is optional and only improves caption language
	// detection for requests without a locale hint.
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.GeoIPDBPath).Msg("failed to open geoip database")
	}
	if resolver != nil {
		defer resolver.Close()
		app.Country = resolver.CountryCode
	}

	var files *storage.FileStore
	if cfg.StoragePath != "" {
		files, err = storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("failed to prepare storage directory")
		}
		app.Files = files
	}

	// Gemini is the default provider for both analysis and rendering, so the
	// client is built unconditionally.
	genaiClient, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.GenAITimeout},
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	analyzer, err := buildAnalyzer(cfg, genaiClient, analysisCache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build analyzer")
	}
	renderer, err := buildRenderer(cfg, genaiClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build renderer")
	}

	opts := studio.Options{
		BaseContext: ctx,
		Analyzer:    analyzer,
		Renderer:    renderer,
		Logger:      logger,
		SessionTTL:  cfg.SessionTTL,
	}
	if history != nil {
		opts.Recorder = history
	}
	if files != nil {
		opts.Images = files
	}
	manager := studio.NewManager(opts)
	defer manager.Close()
	app.Studio = manager

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildAnalyzer(cfg *infra.Config, genaiClient *genai.Client, analysisCache cache.Cache, logger zerolog.Logger) (analysis.Analyzer, error) {
	var analyzer analysis.Analyzer
	switch cfg.AnalysisProvider {
	case "openai":
		openAI, err := analysis.NewOpenAIAnalyzer(analysis.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		analyzer = openAI
	default:
		analyzer = analysis.NewGeminiAnalyzer(genaiClient, cfg.GeminiAnalysisModel, logger)
	}
	if analysisCache != nil {
		analyzer = analysis.NewCachedAnalyzer(analyzer, analysisCache, cfg.AnalysisCacheTTL, logger)
	}
	return analyzer, nil
}

func buildRenderer(cfg *infra.Config, genaiClient *genai.Client, logger zerolog.Logger) (hairstyle.Renderer, error) {
	if cfg.ImageProvider == "qwen" {
		client, err := qwen.NewClient(qwen.Options{
			APIKey:         cfg.QwenAPIKey,
			BaseURL:        cfg.QwenBaseURL,
			Model:          cfg.QwenImageModel,
			Logger:         logger,
			RequestTimeout: cfg.GenAITimeout,
		})
		if err != nil {
			return nil, err
		}
		return hairstyle.NewQwenRenderer(client, logger), nil
	}
	return hairstyle.NewGeminiRenderer(genaiClient, cfg.GeminiImageModel, logger), nil
}
