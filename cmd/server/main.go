package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"faceattend/internal/attendance"
	"faceattend/internal/config"
	"faceattend/internal/face"
	"faceattend/internal/handler"
	"faceattend/internal/logger"
	"faceattend/internal/store"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	st, err := store.Open(cfg.DBPath, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Infof("database ready: %s", cfg.DBPath)

	encoder := face.NewClient(cfg.FaceServiceURL, cfg.FaceTimeout, cfg.FaceSkip)
	if cfg.FaceSkip {
		log.Warn("FACE_SKIP enabled, using mock encodings")
	} else {
		log.Infof("face service: %s", cfg.FaceServiceURL)
	}
	matcher := &face.Matcher{Encoder: encoder, Threshold: cfg.MatchThreshold}

	svc := attendance.NewService(st, matcher)
	h := handler.New(svc, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.TeamMembers)

	r := handler.NewRouter(h, handler.RouterOptions{
		JWTSigningKey:   cfg.JWTSigningKey,
		JWTIssuer:       cfg.JWTIssuer,
		RateLimitPerMin: cfg.RateLimitPerMin,
		WebDir:          cfg.WebDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("forced shutdown: %v", err)
	}

	log.Info("server exited")
	return nil
}
