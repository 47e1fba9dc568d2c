package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/armoryshop/armory-backend/internal/catalog/handler"
	"github.com/armoryshop/armory-backend/internal/catalog/repository"
	"github.com/armoryshop/armory-backend/internal/catalog/service"
	"github.com/armoryshop/armory-backend/internal/config"
	"github.com/armoryshop/armory-backend/internal/database"
	"github.com/armoryshop/armory-backend/internal/storage"
	"github.com/armoryshop/armory-backend/pkg/logger"
	"github.com/armoryshop/armory-backend/pkg/metrics"
	"github.com/armoryshop/armory-backend/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: github=%v mongo=%v redis=%v minio=%v",
		cfg.HasGitHub(), cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()
	r.Use(middleware.CORS())
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Select the document store backend: GitHub is the primary deployment
	// target, Mongo serves installs without a data repository.
	var docStore repository.DocumentStore
	var mongoClient *mongo.Client
	switch {
	case cfg.HasGitHub():
		docStore = repository.NewGitHubStore(repository.GitHubOptions{
			Token:    cfg.GitHub.Token,
			Owner:    cfg.GitHub.Owner,
			Repo:     cfg.GitHub.Repo,
			Branch:   cfg.GitHub.Branch,
			FilePath: cfg.GitHub.FilePath,
			Timeout:  cfg.Store.RemoteTimeout,
		})
		logger.Infof("Using GitHub document store: %s/%s@%s:%s",
			cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Branch, cfg.GitHub.FilePath)
	case cfg.MongoDB.URI != "":
		// Retry/backoff when connecting to MongoDB to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		col := mongoClient.Database(cfg.MongoDB.Database).Collection("catalog")
		docStore = repository.NewMongoStore(col)
		logger.Infof("Using Mongo document store: %s/catalog", cfg.MongoDB.Database)
	default:
		logger.Fatalf("no document store configured: set GITHUB_TOKEN/GITHUB_OWNER/GITHUB_REPO or MONGODB_URI")
	}

	svc := service.NewCachedStore(docStore, cfg.Store.CacheTTL)

	// Optional image uploads via MinIO
	var images *storage.ImageStore
	if cfg.MinIO.Endpoint != "" {
		images, err = storage.NewImageStore(storage.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			logger.Warnf("image storage unavailable: %v", err)
			images = nil
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{"store": docStore != nil}

		if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		}
		deps["uploads"] = images != nil

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime))})
	})

	handler.RegisterCatalogRoutes(r, svc, images)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting catalog service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
