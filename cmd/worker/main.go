package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakash-iyer/cpm-engine/internal/cache"
	"github.com/prakash-iyer/cpm-engine/internal/dlq"
	"github.com/prakash-iyer/cpm-engine/internal/engine"
	"github.com/prakash-iyer/cpm-engine/internal/recalc"
	"github.com/prakash-iyer/cpm-engine/internal/storage"
)

const version = "0.1.0"

func main() {
	natsURL := flag.String("nats", getEnv("NATS_URL", "nats://localhost:4222"), "NATS server URL")
	flag.Parse()

	log.Printf("Starting CPM Engine Worker v%s", version)
	log.Printf("NATS URL: %s", *natsURL)

	dbCfg := &storage.Config{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        getEnv("DB_PORT", "5432"),
		User:        getEnv("DB_USER", "cpm"),
		Password:    getEnv("DB_PASSWORD", "cpm_dev_password"),
		DBName:      getEnv("DB_NAME", "cpm_engine"),
		SSLMode:     getEnv("DB_SSLMODE", "disable"),
		MaxConns:    10,
		MinConns:    2,
		MaxIdleTime: 5 * time.Minute,
		MaxLifetime: 30 * time.Minute,
	}

	db, err := storage.NewDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()

	projectRepo := storage.NewProjectRepository(db.DB)
	projectCache := cache.NewProjectCache(redisClient)
	events := cache.NewMultiPublisher(cache.NewRedisPublisher(redisClient))

	dlqQueue := dlq.NewMemoryQueue()
	dlqMgr := dlq.NewManager(dlqQueue, 5)

	persistor := engine.NewPersistor(projectRepo, projectCache, events, dlqMgr)

	consumer, err := recalc.NewConsumer(*natsURL)
	if err != nil {
		log.Fatalf("Failed to create NATS consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := consumer.Start(ctx, func(ctx context.Context, req recalc.Request) error {
			return recalculate(ctx, projectRepo, persistor, req)
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("Consumer stopped: %v", err)
		}
	}()

	log.Println("Worker started and ready to process recalculation requests")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)

	cancel()
	if err := consumer.Stop(); err != nil {
		log.Printf("Error stopping consumer: %v", err)
	}
	log.Println("Worker stopped")
}

// recalculate loads a project's snapshot, runs the CPM computation,
// and persists the result. The in-memory engine.Service is created
// fresh per request since worker processes do not hold long-lived
// per-project state the way the API server's handler registry does.
func recalculate(ctx context.Context, repo storage.ProjectRepository, persistor *engine.Persistor, req recalc.Request) error {
	tasks, cal, err := repo.Get(ctx, req.ProjectID)
	if err != nil {
		return err
	}

	svc := engine.NewService(nil, nil)
	svc.Initialize(tasks, cal)

	result, stats, err := svc.Calculate()
	if err != nil {
		return err
	}

	return persistor.Save(ctx, req.ProjectID, result, cal, stats)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
