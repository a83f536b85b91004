package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prakash-iyer/cpm-engine/internal/cache"
	"github.com/prakash-iyer/cpm-engine/internal/dlq"
	"github.com/prakash-iyer/cpm-engine/internal/engine"
	"github.com/prakash-iyer/cpm-engine/internal/recalc"
	"github.com/prakash-iyer/cpm-engine/internal/storage"
	"github.com/prakash-iyer/cpm-engine/pkg/api/dto"
	"github.com/prakash-iyer/cpm-engine/pkg/api/handlers"
	"github.com/prakash-iyer/cpm-engine/pkg/api/middleware"
)

const version = "0.1.0"

func main() {
	log.Printf("Starting CPM Engine Server v%s", version)

	env := getEnv("ENV", "development")
	port := getEnv("PORT", "8080")

	dbCfg := &storage.Config{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        getEnv("DB_PORT", "5432"),
		User:        getEnv("DB_USER", "cpm"),
		Password:    getEnv("DB_PASSWORD", "cpm_dev_password"),
		DBName:      getEnv("DB_NAME", "cpm_engine"),
		SSLMode:     getEnv("DB_SSLMODE", "disable"),
		MaxConns:    25,
		MinConns:    5,
		MaxIdleTime: 5 * time.Minute,
		MaxLifetime: 30 * time.Minute,
	}

	db, err := storage.NewDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCfg := &storage.MigrateConfig{
		Host:     dbCfg.Host,
		Port:     dbCfg.Port,
		User:     dbCfg.User,
		Password: dbCfg.Password,
		DBName:   dbCfg.DBName,
		SSLMode:  dbCfg.SSLMode,
	}
	if err := storage.RunMigrations(migrateCfg, "./migrations"); err != nil {
		log.Printf("Warning: failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379")),
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisHealthy := redisClient.Ping(pingCtx).Err() == nil
	cancel()
	if !redisHealthy {
		log.Printf("Warning: failed to connect to Redis")
	}

	projectRepo := storage.NewProjectRepository(db.DB)
	projectCache := cache.NewProjectCache(redisClient)

	events := cache.NewMultiPublisher(cache.NewRedisPublisher(redisClient))

	dlqQueue := dlq.NewMemoryQueue()
	dlqMgr := dlq.NewManager(dlqQueue, 5)

	persistor := engine.NewPersistor(projectRepo, projectCache, events, dlqMgr)

	natsURL := getEnv("NATS_URL", "nats://localhost:4222")
	var recalcProducer *recalc.Producer
	if p, err := recalc.NewProducer(natsURL); err != nil {
		log.Printf("Warning: NATS unavailable, the recalculate-async endpoint is disabled: %v", err)
	} else {
		recalcProducer = p
	}

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(logger))

	projectHandler := handlers.NewProjectHandler(projectRepo, persistor)

	router.GET("/health", func(c *gin.Context) {
		dbHealthy := db.Health(c.Request.Context()) == nil
		redisOK := redisClient.Ping(c.Request.Context()).Err() == nil

		status := "healthy"
		services := map[string]string{"database": "healthy", "redis": "healthy"}
		if !dbHealthy {
			status = "degraded"
			services["database"] = "unhealthy"
		}
		if !redisOK {
			status = "degraded"
			services["redis"] = "unhealthy"
		}

		c.JSON(200, dto.HealthResponse{Status: status, Services: services})
	})

	jwtConfig := middleware.DefaultJWTConfig()

	api := router.Group("/api/v1")
	api.Use(middleware.OptionalAuth(jwtConfig))
	api.Use(middleware.GlobalRateLimiter.RateLimit())

	projects := api.Group("/projects")
	{
		projects.POST("", projectHandler.CreateProject)
		projects.POST("/import", projectHandler.ImportProject)
		projects.GET("", projectHandler.ListProjects)
		projects.GET("/:id", projectHandler.GetProject)
		projects.DELETE("/:id", projectHandler.DeleteProject)
		projects.GET("/:id/tasks", projectHandler.GetTasks)
		projects.POST("/:id/tasks", projectHandler.AddTask)
		projects.PUT("/:id/tasks", projectHandler.SyncTasks)
		projects.PATCH("/:id/tasks/:taskId", projectHandler.UpdateTask)
		projects.DELETE("/:id/tasks/:taskId", projectHandler.DeleteTask)
		projects.PUT("/:id/calendar", projectHandler.UpdateCalendar)
		projects.POST("/:id/calculate", projectHandler.Calculate)
		projects.GET("/:id/task-count", projectHandler.TaskCount)
	}

	if recalcProducer != nil {
		projects.POST("/:id/recalculate-async", func(c *gin.Context) {
			id := c.Param("id")
			if err := recalcProducer.Enqueue(c.Request.Context(), id, "api_request"); err != nil {
				middleware.AbortWithError(c, 500, "ENQUEUE_FAILED", err.Error())
				return
			}
			c.JSON(202, dto.SuccessResponse{Success: true, Message: "recalculation queued"})
		})
	}

	log.Printf("Server listening on port %s in %s mode", port, env)
	if err := router.Run(fmt.Sprintf(":%s", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
