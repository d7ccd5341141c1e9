package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/config"
	redisinfra "auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/infrastructure/websocket"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

// stream-service fans the published auction event stream out to
// websocket clients. Read only: it never mutates auction state.
func main() {
	log := logger.New()
	log.Info("Starting stream service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	connManager := websocket.NewConnectionManager(log)
	wsHandler := websocket.NewHandler(connManager, log)

	relay := services.NewEventRelay(connManager, log)
	subscriber := redisinfra.NewEventSubscriber(rdb, log)

	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	go func() {
		if err := relay.Start(relayCtx, subscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event relay stopped", "error", err)
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/ws/auctions/{auctionID}", wsHandler.HandleConnection)
	router.HandleFunc("/ws", wsHandler.HandleConnection) // lobby: created/closed events only
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting websocket server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down stream service...")

	relayCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Stream service stopped")
}
