package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiblyc-four/party-games/internal/config"
	"github.com/shiblyc-four/party-games/internal/game"
	"github.com/shiblyc-four/party-games/internal/registry"
	"github.com/shiblyc-four/party-games/internal/server"
	"github.com/shiblyc-four/party-games/internal/store"
)

func main() {
	cfg := config.Load()

	st := newStore(cfg)
	reg := registry.New(game.NewScheduler(), st)
	srv := server.New(cfg, reg, st)
	httpSrv := srv.HTTPServer()

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	reg.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		closer.Close()
	}
}

func newStore(cfg config.Config) store.Store {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, using memory store")
		return store.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("Failed to connect to Redis, using memory store: %v", err)
		return store.NewMemoryStore()
	}
	log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	return st
}
