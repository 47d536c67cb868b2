package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/config"
	"github.com/victor-nwoseh/finance-tracker/internal/logger"
	"github.com/victor-nwoseh/finance-tracker/internal/server"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/memory"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/postgres"
)

const memoryScheme = "memory://"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Debug("no .env file found; relying on existing environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("init database")
	}
	defer store.Close()

	srv := server.New(cfg, store, log)
	srv.StartBackground(ctx)

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.HTTPAddress(), "env": cfg.Env}).Info("finance tracker listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("graceful shutdown error")
	}
}

func openStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	if strings.HasPrefix(databaseURL, memoryScheme) {
		return memory.New(), nil
	}
	return postgres.NewStore(ctx, databaseURL)
}
