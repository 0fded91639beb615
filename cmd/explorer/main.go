package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lumenview/explorer-go/internal/api"
	"github.com/lumenview/explorer-go/internal/config"
	"github.com/lumenview/explorer-go/internal/ohlcvt"
	"github.com/lumenview/explorer-go/internal/query"
	"github.com/lumenview/explorer-go/internal/resolver"
	"github.com/lumenview/explorer-go/internal/shard"
	"github.com/lumenview/explorer-go/internal/storage"
	"github.com/lumenview/explorer-go/migrations"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := storage.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	for _, migFile := range migrations.Files {
		migrationSQL, err := migrations.FS.ReadFile(migFile)
		if err != nil {
			log.Fatal("read migration file", zap.String("file", migFile), zap.Error(err))
		}
		if err := storage.RunMigrations(ctx, pool, string(migrationSQL)); err != nil {
			log.Fatal("migration failed", zap.String("file", migFile), zap.Error(err))
		}
		log.Info("migration applied", zap.String("file", migFile))
	}

	store := storage.NewPostgresStore(pool)

	engine := query.NewEngine(query.Config{
		Store:        store,
		Index:        store,
		Directory:    shard.NewDirectory(store, cfg.ShardRefresh, log),
		Years:        shard.NewYearlyDirectory("payments", cfg.FirstIndexedYear),
		Resolvers: resolver.NewSet(
			resolver.NewAccountSource(store),
			resolver.NewAssetSource(store),
			resolver.NewPoolSource(store),
			resolver.NewMemoSource(store),
		),
		Clock:        query.NewStoreClock(store),
		Log:          log,
		Networks:     cfg.Networks,
		ShardTimeout: cfg.ShardTimeout,
	})

	router := api.NewRouter(engine, ohlcvt.NewStoreSource(store), log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		log.Info("explorer listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
