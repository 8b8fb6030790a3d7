package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/zanzhit/capture_studio/internal/config"
	"github.com/zanzhit/capture_studio/internal/domain/errs"
	authhandler "github.com/zanzhit/capture_studio/internal/http-server/handlers/auth"
	camerahandler "github.com/zanzhit/capture_studio/internal/http-server/handlers/cameras"
	capturehandler "github.com/zanzhit/capture_studio/internal/http-server/handlers/capture"
	sessionhandler "github.com/zanzhit/capture_studio/internal/http-server/handlers/sessions"
	authmiddleware "github.com/zanzhit/capture_studio/internal/http-server/middleware/auth"
	"github.com/zanzhit/capture_studio/internal/http-server/middleware/logger"
	"github.com/zanzhit/capture_studio/internal/lib/events"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
	audioservice "github.com/zanzhit/capture_studio/internal/services/audio"
	ffmpegaudio "github.com/zanzhit/capture_studio/internal/services/audio/ffmpeg"
	authservice "github.com/zanzhit/capture_studio/internal/services/auth"
	cameraservice "github.com/zanzhit/capture_studio/internal/services/cameras"
	captureservice "github.com/zanzhit/capture_studio/internal/services/capture"
	ffmpegmedia "github.com/zanzhit/capture_studio/internal/services/capture/ffmpeg"
	sessionservice "github.com/zanzhit/capture_studio/internal/services/sessions"
	"github.com/zanzhit/capture_studio/internal/services/sessions/archive"
	"github.com/zanzhit/capture_studio/internal/storage/postgres"
	authstorage "github.com/zanzhit/capture_studio/internal/storage/postgres/auth"
	camerastorage "github.com/zanzhit/capture_studio/internal/storage/postgres/cameras"
	sessionstorage "github.com/zanzhit/capture_studio/internal/storage/postgres/sessions"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting capture studio", slog.String("env", cfg.Env))

	if cfg.DB.Password == "" {
		cfg.DB.Password = os.Getenv("POSTGRES_PASSWORD")
	}
	if cfg.DB.Password == "" {
		panic("POSTGRES_PASSWORD is required")
	}

	storage, err := postgres.New(cfg.DB)
	if err != nil {
		panic(err)
	}

	bus := events.NewBus()
	go logEvents(log, bus)

	authStorage := authstorage.New(storage)
	authService := authservice.New(log, authStorage, authStorage, cfg.TokenTTL, cfg.Secret)

	if err := authService.CreateInitialAdmin(); err != nil {
		log.Warn("initial admin not created", sl.Err(err))
	}

	var audioRecorder captureservice.AudioRecorder

	audioProvider := ffmpegaudio.New(os.Getenv("AUDIO_DEVICE"))
	if err := audioProvider.Initialize(cfg.Capture.SampleRate, cfg.Capture.Channels); err != nil {
		log.Warn("audio capture unavailable", sl.Err(err))
	} else {
		audioRecorder = audioservice.New(log, audioProvider, ffmpegmedia.NewConcatenator())
	}

	sessionStorage := sessionstorage.New(storage)

	captureService := captureservice.New(
		log,
		bus,
		audioRecorder,
		ffmpegmedia.NewEncoder(),
		ffmpegmedia.NewMuxer(),
		sessionStorage,
		captureservice.Options{
			WorkPath:          cfg.WorkPath,
			PollInterval:      cfg.Capture.PollInterval,
			StatusInterval:    cfg.Capture.StatusInterval,
			MinRate:           cfg.Capture.MinRate,
			MaxBufferedFrames: cfg.Capture.MaxBufferedFrames,
		},
	)

	cameraStorage := camerastorage.New(storage)
	cameraService := cameraservice.New(log, cfg.VideosPath, cameraStorage, cameraStorage)

	var arch sessionservice.Archive
	if cfg.ArchiveConfig != "" {
		arch = archive.MustLoad(cfg.ArchiveConfig)
	}
	sessionService := sessionservice.New(log, sessionStorage, arch)

	authHandler := authhandler.New(log, authService)
	cameraHandler := camerahandler.New(log, cameraService)
	captureHandler := capturehandler.New(log, captureService, cameraService)
	sessionHandler := sessionhandler.New(log, sessionService)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/auth/register", authHandler.RegisterNewUser)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(authmiddleware.JWTAuth(cfg.Secret))

		r.Post("/cameras", cameraHandler.Save)
		r.Get("/cameras", cameraHandler.List)

		r.Post("/recordings/start", captureHandler.Start)
		r.Post("/recordings/stop", captureHandler.Stop)
		r.Post("/recordings/pause", captureHandler.Pause)
		r.Post("/recordings/resume", captureHandler.Resume)
		r.Get("/recordings/status", captureHandler.Status)

		r.Post("/sessions", sessionHandler.List)
		r.Post("/sessions/move", sessionHandler.Move)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Address))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")

	// Finish an in-flight session so the operator does not lose the capture.
	if _, err := captureService.Stop(); err != nil && !errors.Is(err, errs.ErrNotRecording) {
		log.Error("failed to stop active recording", sl.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}
}

func logEvents(log *slog.Logger, bus *events.Bus) {
	ch, cancel := bus.Subscribe(16)
	defer cancel()

	for e := range ch {
		switch e.Kind {
		case events.ErrorRaised:
			log.Warn("recording event",
				slog.String("session_id", e.SessionID),
				slog.String("message", e.Message),
			)
		case events.Completed:
			log.Info("recording completed",
				slog.String("session_id", e.SessionID),
				slog.String("output_path", e.OutputPath),
			)
		}
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
