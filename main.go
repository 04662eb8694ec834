package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Amedjranamen/IM/internal/api"
	"github.com/Amedjranamen/IM/internal/cache"
	"github.com/Amedjranamen/IM/internal/config"
	"github.com/Amedjranamen/IM/internal/db"
	"github.com/Amedjranamen/IM/internal/storage"
	"github.com/Amedjranamen/IM/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	// Unique indexes back the duplicate-email and like/favorite pair checks.
	if err := db.EnsureIndexes(context.Background(), mongoDb); err != nil {
		log.Fatalf("Failed to ensure database indexes: %v", err)
	}

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	// Initialize Task Client
	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	var apiSrv *http.Server
	var taskSrv *asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		fmt.Println("Starting API server...")
		router := api.SetupRouter(cfg, mongoDb, redisClient, taskClient)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	bgMode := func() {
		fmt.Println("Starting background worker...")
		store, err := storage.NewStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize media storage for worker: %v", err)
		}
		processor := tasks.NewTaskProcessor(cfg, store)
		srv, mux := tasks.SetupServer(redisClient, processor)
		taskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Println("Background task server starting...")
			if err := taskSrv.Run(mux); err != nil {
				log.Fatalf("Background task server error: %v", err)
			}
			fmt.Println("Background task server stopped.")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		fmt.Println("Shutting down API server...")
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}

	if taskSrv != nil {
		fmt.Println("Shutting down background task server...")
		taskSrv.Shutdown()
	}

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}
