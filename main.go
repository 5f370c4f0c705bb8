package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/arielmc/vintage-wizard-sub001/internal/config"
	"github.com/arielmc/vintage-wizard-sub001/internal/llm"
	"github.com/arielmc/vintage-wizard-sub001/internal/notify"
	"github.com/arielmc/vintage-wizard-sub001/internal/objectstore"
	"github.com/arielmc/vintage-wizard-sub001/internal/pipeline"
	"github.com/arielmc/vintage-wizard-sub001/internal/server"
	"github.com/arielmc/vintage-wizard-sub001/internal/share"
	"github.com/arielmc/vintage-wizard-sub001/internal/staging"
	"github.com/arielmc/vintage-wizard-sub001/internal/storage"
)

const logFileName = "vintage-wizard.log"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// JOURNAL_STREAM is set by systemd when running as a service; journald
	// handles persistence there, so skip file logging.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open log file")
		}
		defer logFile.Close()

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
		log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

		log.Info().Str("logFile", logFileName).Msg("logging to file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	geminiAnalyzer, err := llm.NewGeminiAnalyzer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini analyzer")
	}
	analyzer := llm.NewCachedAnalyzer(geminiAnalyzer, store)
	log.Info().Msg("gemini analyzer initialized with caching")

	var uploader objectstore.Uploader
	if cfg.ObjectStoreURL != "" {
		uploader = objectstore.NewClient(objectstore.ClientOpts{
			BaseURL: cfg.ObjectStoreURL,
			APIKey:  cfg.ObjectStoreAPIKey,
			Bucket:  cfg.ObjectStoreBucket,
		})
		log.Info().Str("url", cfg.ObjectStoreURL).Msg("object store uploads enabled")
	}

	var signer *share.Signer
	if cfg.ShareSecret != "" {
		signer, err = share.NewSigner(cfg.ShareSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize share signer")
		}
		log.Info().Msg("share links enabled")
	}

	var notifier *notify.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize telegram notifier")
		}
	}

	stagingManager := staging.NewManager()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Opts{
		Store:     store,
		Pipeline:  pipeline.NewService(store, analyzer),
		Generator: llm.GetGeminiAnalyzer(analyzer),
		Staging:   stagingManager,
		Uploader:  uploader,
		Signer:    signer,
		Notifier:  notifier,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx, cfg.Addr)
	})

	g.Go(func() error {
		stagingManager.Run(ctx)
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}
