package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prakash-iyer/cpm-engine/internal/recalc"
	"github.com/prakash-iyer/cpm-engine/internal/storage"
)

const version = "0.1.0"

var (
	sweepSchedule = flag.String("schedule", getEnv("SWEEP_SCHEDULE", "@every 1h"), "cron expression for the recalculation sweep")
	natsURL       = flag.String("nats", getEnv("NATS_URL", "nats://localhost:4222"), "NATS server URL")
)

// sweep re-enqueues a recalculation request for the stored projects
// returned by one List call (at most 1000, in no defined order; any
// further projects are not enqueued in that sweep), so tasks with ASAP/SNET constraints get re-evaluated against the
// current date even if nothing else about the project changed.
// Grounded on internal/scheduler/cron.go's CronScheduler, simplified
// from per-DAG schedules to a single recurring sweep since a CPM
// project has no schedule of its own.
func sweep(ctx context.Context, repo storage.ProjectRepository, producer *recalc.Producer) {
	summaries, err := repo.List(ctx, storage.ProjectFilters{Limit: 1000})
	if err != nil {
		log.Printf("sweep: failed to list projects: %v", err)
		return
	}

	for _, s := range summaries {
		if err := producer.Enqueue(ctx, s.ID, "scheduled_sweep"); err != nil {
			log.Printf("sweep: failed to enqueue project %s: %v", s.ID, err)
		}
	}
	log.Printf("sweep: enqueued recalculation for %d project(s)", len(summaries))
}

func main() {
	flag.Parse()

	log.Printf("Starting CPM Engine Scheduler v%s", version)
	log.Printf("Sweep schedule: %s", *sweepSchedule)

	dbCfg := &storage.Config{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        getEnv("DB_PORT", "5432"),
		User:        getEnv("DB_USER", "cpm"),
		Password:    getEnv("DB_PASSWORD", "cpm_dev_password"),
		DBName:      getEnv("DB_NAME", "cpm_engine"),
		SSLMode:     getEnv("DB_SSLMODE", "disable"),
		MaxConns:    5,
		MinConns:    1,
		MaxIdleTime: 5 * time.Minute,
		MaxLifetime: 30 * time.Minute,
	}

	db, err := storage.NewDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	projectRepo := storage.NewProjectRepository(db.DB)

	producer, err := recalc.NewProducer(*natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()
	if _, err := c.AddFunc(*sweepSchedule, func() {
		sweep(ctx, projectRepo, producer)
	}); err != nil {
		log.Fatalf("Invalid sweep schedule %q: %v", *sweepSchedule, err)
	}
	c.Start()

	log.Println("Scheduler started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	stopCtx := c.Stop()
	<-stopCtx.Done()

	log.Println("Scheduler stopped gracefully")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
