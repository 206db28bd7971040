package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"breeze-console/internal/auth"
	"breeze-console/internal/config"
	"breeze-console/internal/httpapi"
	"breeze-console/internal/shell"
	"breeze-console/pkg/logger"

	"github.com/gin-gonic/gin"
)

// bridgeWindowID names the single host window the shell serves.
const bridgeWindowID = "main"

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sh, err := shell.Build(rootCtx, cfg, log, shell.Options{})
	if err != nil {
		log.Error("shell init failed", "err", err)
		os.Exit(1)
	}
	defer sh.Close()

	bridge, err := auth.NewManager(cfg.Bridge)
	if err != nil {
		log.Error("bridge init failed", "err", err)
		os.Exit(1)
	}
	bridgeToken, err := bridge.Issue(time.Now(), bridgeWindowID)
	if err != nil {
		log.Error("bridge token issuance failed", "err", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	httpapi.Register(r, httpapi.Handlers{Shell: sh, Bridge: bridge})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTP.Timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("console listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"storage", cfg.Storage.Driver,
			"signed_in", sh.Session.IsLoggedIn(),
		)
		// The host window reads the bridge token from stdout.
		os.Stdout.WriteString("BRIDGE_TOKEN=" + bridgeToken + "\n")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
