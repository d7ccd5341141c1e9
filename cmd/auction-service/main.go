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

	"auction-marketplace/internal/api/handlers"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/memory"
	mysqlstore "auction-marketplace/internal/infrastructure/mysql"
	"auction-marketplace/internal/infrastructure/notify"
	redisinfra "auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting auction service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	log.Info("Configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Event transport and leader election ride on Redis when enabled;
	// otherwise events go to the log and the sweep runs unconditionally.
	var emitter domain.EventEmitter = memory.NewLogEmitter(log)
	var leaderElection domain.LeaderElection
	if cfg.Redis.Enabled {
		rdb := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to Redis", "address", cfg.Redis.Address)

		emitter = redisinfra.NewEventPublisher(rdb)
		leaderElection = leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)
	}

	// Auction state lives in MySQL when configured, otherwise in the
	// volatile in-process store.
	var store domain.AuctionStore = memory.NewAuctionStore()
	if cfg.MySQL.Enabled {
		db, err := utils.OpenMySQL(ctx, cfg)
		if err != nil {
			log.Error("Failed to connect to MySQL", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("Connected to MySQL")
		store = mysqlstore.NewAuctionStore(db)
	}

	// The user and inventory services are external collaborators; the
	// in-process adapters stand in for them here.
	ledger := memory.NewUserLedger()
	items := memory.NewItemRegistry()
	seedDemoData(ledger, items)

	notifier := notify.NewLogNotifier(log)

	engine := services.NewEngine(store, ledger, items, emitter, notifier,
		nil, // scheduler is set below
		log)

	scheduler, err := services.NewExpiryScheduler(engine, store, leaderElection,
		cfg.Instance.ID, cfg.Scheduler.SweepInterval, log)
	if err != nil {
		log.Error("Failed to build scheduler", "error", err)
		os.Exit(1)
	}
	engine.SetScheduler(scheduler)

	if err := scheduler.Start(context.Background()); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	if leaderElection != nil {
		go leadershipLoop(leaderElection, cfg.Instance.ID, log)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handlers.NewAuctionHandler(engine, ledger, log).Register(e.Group("/api/v1"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting HTTP server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	if leaderElection != nil {
		if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
			log.Error("Failed to release leadership", "error", err)
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction service stopped")
}

func leadershipLoop(le domain.LeaderElection, instanceID string, log logger.Logger) {
	for {
		became, err := le.BecomeLeader(context.Background(), instanceID)
		if err != nil {
			log.Error("Failed to attempt leadership", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if became {
			log.Info("Became sweep leader", "instance_id", instanceID)
		}
		time.Sleep(10 * time.Second)
	}
}

// seedDemoData populates the stand-in ledger and registry so the
// service is usable out of the box. A real deployment wires the user
// and inventory services instead.
func seedDemoData(ledger *memory.UserLedger, items *memory.ItemRegistry) {
	ledger.AddUser(domain.User{ID: "user-seller", Username: "seller", Email: "seller@example.com", Credits: 100, IsActive: true}, "token-seller")
	ledger.AddUser(domain.User{ID: "user-alice", Username: "alice", Email: "alice@example.com", Credits: 500, IsActive: true}, "token-alice")
	ledger.AddUser(domain.User{ID: "user-bob", Username: "bob", Email: "bob@example.com", Credits: 500, IsActive: true}, "token-bob")

	items.AddItem(domain.Item{ID: "item-sword", OwnerID: "user-seller", Name: "Iron Sword", Description: "A plain iron sword", Type: "Weapon", IsAvailable: true})
	items.AddItem(domain.Item{ID: "item-shield", OwnerID: "user-seller", Name: "Oak Shield", Description: "A sturdy oak shield", Type: "Armor", IsAvailable: true})
}
