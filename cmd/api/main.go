package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/corboo/claire-video-generator/internal/http/handlers"
	httpapi "github.com/corboo/claire-video-generator/internal/http/httpapi"
	"github.com/corboo/claire-video-generator/internal/infra"
	"github.com/corboo/claire-video-generator/internal/infra/credentials"
	"github.com/corboo/claire-video-generator/internal/pipeline"
	"github.com/corboo/claire-video-generator/internal/providers/did"
	"github.com/corboo/claire-video-generator/internal/providers/hume"
	"github.com/corboo/claire-video-generator/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// Credentials: secrets file first, then environment. Fail closed before
	// anything listens or any provider is called.
	secrets, err := credentials.NewFileSource(cfg.SecretsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load secrets")
	}
	store := credentials.NewStore(secrets, credentials.EnvSource{})
	humeKey, didKey, err := store.ProviderKeys()
	if err != nil {
		logger.Fatal().Err(err).Msg("refusing to start")
	}

	ttsClient, err := hume.NewClient(hume.Options{
		APIKey:         humeKey,
		BaseURL:        cfg.HumeBaseURL,
		VoiceID:        cfg.HumeVoiceID,
		RequestTimeout: cfg.ProviderTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build tts client")
	}

	didClient, err := did.NewClient(did.Options{
		APIKey:         didKey,
		BaseURL:        cfg.DIDBaseURL,
		RequestTimeout: cfg.ProviderTimeout,
		PollInterval:   cfg.PollInterval,
		PollAttempts:   cfg.PollAttempts,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build avatar-video client")
	}

	avatars, err := storage.NewAssetStore(cfg.AssetsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open assets dir")
	}

	generator := pipeline.New(ttsClient, didClient, avatars, logger)
	app := handlers.NewApp(cfg, logger, generator)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

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
