package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"internify/internal/devbackend"
	"internify/internal/shared/config"
	"internify/internal/shared/server"
	"internify/internal/shared/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	telemetry.SetLevel(cfg.LogLevel)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var model llms.Model
	if cfg.GeminiAPIKey != "" {
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.LLMModel),
		)
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
	}

	backend, err := devbackend.New(devbackend.Options{
		Env:         cfg.Env,
		AnonKey:     cfg.AuthAnonKey,
		JWTSecret:   cfg.JWTSecret,
		AutoConfirm: cfg.AutoConfirm,
		CORSOrigins: cfg.CORSAllowOrigin,
		Model:       model,
	})
	if err != nil {
		log.Fatalf("dev backend: %v", err)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	telemetry.Info("devserver.start", map[string]any{"addr": srv.Addr, "gemini": model != nil, "auto_confirm": cfg.AutoConfirm})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
