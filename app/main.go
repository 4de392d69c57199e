package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	sloghttp "github.com/samber/slog-http"
	slogmulti "github.com/samber/slog-multi"

	"github.com/lysyi3m/adcomb/app/ai"
	"github.com/lysyi3m/adcomb/app/api"
	"github.com/lysyi3m/adcomb/app/cfg"
	"github.com/lysyi3m/adcomb/app/content"
	"github.com/lysyi3m/adcomb/app/credits"
	"github.com/lysyi3m/adcomb/app/database"
	"github.com/lysyi3m/adcomb/app/feed"
	"github.com/lysyi3m/adcomb/app/notify"
	"github.com/lysyi3m/adcomb/app/scrape"
	"github.com/lysyi3m/adcomb/app/storage"
)

func main() {
	level := new(slog.LevelVar)
	setupLogging(level)

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if appCfg.Debug {
		level.Set(slog.LevelDebug)
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	slog.Info("Starting AdComb server", "version", appCfg.Version, "storage", appCfg.Storage)

	ctx := context.Background()

	repos, closeStorage, err := openStorage(appCfg)
	if err != nil {
		slog.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	entries, err := feed.LoadCatalog(appCfg.FeedsFile)
	if err != nil {
		slog.Error("Failed to load feed catalog", "file", appCfg.FeedsFile, "error", err)
		os.Exit(1)
	}
	seeded := feed.SeedCatalog(ctx, repos.Feeds, entries)
	slog.Info("Feed catalog seeded", "file", appCfg.FeedsFile, "seeded", seeded, "total", len(entries))

	if err := bootstrapProfile(ctx, repos.Profiles, appCfg); err != nil {
		slog.Error("Failed to bootstrap profile", "error", err)
		os.Exit(1)
	}

	imageCache, closeCache := openImageCache(ctx, appCfg.RedisAddr)
	defer closeCache()

	notifier := openNotifier(appCfg.TelegramBotToken)

	imageStore, err := storage.NewLocalImageStore(appCfg.MediaDir, appCfg.PublicBaseURL())
	if err != nil {
		slog.Error("Failed to prepare media directory", "dir", appCfg.MediaDir, "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{}
	ledger := credits.NewLedger(repos.Profiles)
	llm := ai.NewClient(appCfg.OpenAIKey, appCfg.OpenAIBaseURL, appCfg.ChatModel, appCfg.ImageModel)
	if appCfg.OpenAIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, generation endpoints will fail")
	}

	fetcher := feed.NewFetcher(httpClient, feed.NewParser(), appCfg.UserAgent, appCfg.FeedTimeout)
	aggregator := feed.NewAggregator(repos.Campaigns, repos.Feeds, fetcher)

	throttle := scrape.NewBatchThrottle(appCfg.ImageBatchSize, appCfg.ImageBatchWait, appCfg.ImageBackoff)
	extractor := scrape.NewImageExtractor(httpClient, appCfg.UserAgent, appCfg.ArticleTimeout, appCfg.HeadTimeout, throttle, imageCache)
	article := scrape.NewArticleReader(httpClient, appCfg.UserAgent, appCfg.ArticleTimeout)

	generator := content.NewGenerator(repos, ledger, aggregator, extractor, llm, appCfg.DedupGenerated)

	services := api.Services{
		Repos:        repos,
		Ledger:       ledger,
		Aggregator:   aggregator,
		Generator:    generator,
		Variants:     content.NewVariantGenerator(repos, ledger, llm),
		LandingPages: content.NewLandingPageGenerator(repos, article, llm),
		Images:       content.NewImageGenerator(repos, ledger, llm, imageStore),
		Suggester:    content.NewSuggester(repos.Feeds, ledger, article, llm),
		Updater:      content.NewScheduledUpdater(repos, generator, notifier),
	}

	opts := api.ServerOptions{
		BaseURL:         appCfg.PublicBaseURL(),
		Version:         appCfg.Version,
		MediaDir:        imageStore.Dir(),
		SchedulerAPIKey: appCfg.SchedulerAPIKey,
	}
	router := api.NewServer(api.NewHandler(services, opts), opts)

	handler := sloghttp.Recovery(router)
	handler = sloghttp.New(slog.Default())(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "base_url", appCfg.PublicBaseURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("AdComb server shutdown complete")
}

// setupLogging writes text logs to stdout and errors as JSON to stderr.
func setupLogging(level *slog.LevelVar) {
	level.Set(slog.LevelInfo)

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})

	slog.SetDefault(slog.New(slogmulti.Fanout(textHandler, jsonHandler)))
}

func openStorage(appCfg *cfg.Cfg) (*database.Repositories, func(), error) {
	if appCfg.UsesMemoryStorage() {
		slog.Warn("Using in-memory storage, data is lost on restart")
		return database.NewMemoryStore().Repositories(), func() {}, nil
	}

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser, appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Connected to database", "host", appCfg.DBHost, "name", appCfg.DBName)

	version, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("Database migrations applied", "version", version)

	return database.NewPostgresRepositories(db), func() { db.Close() }, nil
}

// bootstrapProfile registers an admin profile for the configured token so a
// fresh deployment is usable without touching the database.
func bootstrapProfile(ctx context.Context, profiles database.ProfileRepository, appCfg *cfg.Cfg) error {
	if appCfg.BootstrapToken == "" {
		return nil
	}

	hash := api.HashToken(appCfg.BootstrapToken)
	userID, err := profiles.UserIDForTokenHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to look up bootstrap token: %w", err)
	}
	if userID != "" {
		slog.Info("Bootstrap profile already registered", "user", userID)
		return nil
	}

	profile := &database.Profile{Email: "admin@localhost", Credits: appCfg.BootstrapCredits, IsAdmin: true}
	if err := profiles.CreateProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to create bootstrap profile: %w", err)
	}
	if err := profiles.CreateToken(ctx, profile.ID, hash); err != nil {
		return fmt.Errorf("failed to register bootstrap token: %w", err)
	}

	slog.Info("Bootstrap profile created", "user", profile.ID, "credits", profile.Credits)
	return nil
}

func openImageCache(ctx context.Context, addr string) (scrape.ImageCache, func()) {
	if addr == "" {
		return scrape.NopImageCache{}, func() {}
	}

	client, err := scrape.NewRedisClient(ctx, addr)
	if err != nil {
		slog.Warn("Redis unavailable, image cache disabled", "addr", addr, "error", err)
		return scrape.NopImageCache{}, func() {}
	}

	return scrape.NewRedisImageCache(client), func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close Redis client", "error", err)
		}
	}
}

func openNotifier(token string) notify.Notifier {
	if token == "" {
		return notify.Nop{}
	}

	telegram, err := notify.NewTelegram(token)
	if err != nil {
		slog.Warn("Telegram notifications disabled", "error", err)
		return notify.Nop{}
	}
	return telegram
}
