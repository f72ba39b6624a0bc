package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/bridge"
	"github.com/LeNguyen02/AuctionProduct/internal/catalog"
	"github.com/LeNguyen02/AuctionProduct/internal/clock"
	"github.com/LeNguyen02/AuctionProduct/internal/config"
	"github.com/LeNguyen02/AuctionProduct/internal/engine"
	"github.com/LeNguyen02/AuctionProduct/internal/handlers"
	"github.com/LeNguyen02/AuctionProduct/internal/notifier"
	"github.com/LeNguyen02/AuctionProduct/internal/store"
	"github.com/LeNguyen02/AuctionProduct/internal/uploads"
	"github.com/LeNguyen02/AuctionProduct/internal/ws"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer st.Close()

	up, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		log.WithError(err).Fatal("failed to prepare upload directory")
	}

	hub := notifier.NewHub()
	clk := clock.New(hub)
	hub.SetWindowSource(clk.Get)

	eng := engine.New(st, clk, hub)
	cat := catalog.NewService(st, up, hub)

	if cfg.NatsURL != "" {
		br, err := bridge.New(cfg.NatsURL, hub)
		if err != nil {
			log.WithError(err).Fatal("failed to connect event bridge")
		}
		defer br.Close()
		log.WithField("url", cfg.NatsURL).Info("event bridge connected")
	}

	handler := handlers.New(clk, cat, eng, up, ws.NewHandler(hub))
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler.SetupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ServerAddr).Info("auction board listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}
	log.Info("server stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage, products will not survive a restart")
		return store.NewMemoryStore(), nil
	}

	pg, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pg.InitSchema(ctx); err != nil {
		return nil, err
	}
	return pg, nil
}
