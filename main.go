package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/devtoolkit/auth-service/handlers"
	"github.com/devtoolkit/auth-service/internal/config"
	"github.com/devtoolkit/auth-service/internal/database"
	"github.com/devtoolkit/auth-service/internal/tokens"
	"github.com/devtoolkit/auth-service/internal/users"
	"github.com/devtoolkit/auth-service/pkg/logger"
	"github.com/devtoolkit/auth-service/pkg/metrics"
	"github.com/devtoolkit/auth-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v jwt_secret_set=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.JWT.Secret != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-subject when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// Connect to MongoDB; fall back to in-memory state so dev/test runs
	// still boot without storage (tokens and users vanish on restart)
	ctx := context.Background()
	var tokenStore tokens.Store
	var userRepo users.UserRepository
	mongoUp := false
	if cfg.MongoDB.URI != "" {
		client, errConn := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB: %v", errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			ms := tokens.NewMongoStore(db.Collection("tokens"))
			if err := ms.EnsureIndexes(ctx); err != nil {
				logger.Fatalf("failed to create token indexes: %v", err)
			}
			tokenStore = ms
			userRepo = users.NewMongoUserRepository(db.Collection("users"))
			mongoUp = true
		}
	}
	if tokenStore == nil {
		logger.Warnf("MongoDB unavailable; using in-memory token store and user directory")
		tokenStore = tokens.NewMemoryStore()
		userRepo = users.NewMemoryUserRepository()
	}

	userSvc := users.NewService(userRepo)

	// optional bootstrap user for dev/test deployments
	if cfg.Seed.Email != "" && cfg.Seed.Password != "" {
		if _, err := userSvc.EnsureUser(ctx, cfg.Seed.Email, cfg.Seed.Name, cfg.Seed.Password); err != nil {
			logger.Warnf("failed to seed user %s: %v", cfg.Seed.Email, err)
		} else {
			logger.Infof("seeded directory user %s", cfg.Seed.Email)
		}
	}

	codec := tokens.NewCodec(cfg.JWT.Secret)
	lifecycle := tokens.NewService(codec, tokenStore, userSvc, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	h := handlers.NewAuthHandler(lifecycle)
	h.Register(r.Group("/"))

	// every other route sits behind the authentication gate
	protected := r.Group("/", middleware.AuthenticationGate(codec, tokenStore, userSvc))
	h.RegisterProtected(protected)

	// readiness endpoint — reports dependency state; in-memory fallback
	// still counts as ready for dev
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"storage": mongoUp,
			"redis":   redisClient != nil,
		}
		ready := true
		if cfg.MongoDB.URI != "" && !mongoUp {
			ready = false
		}
		if cfg.RateLimit.UseRedis && redisClient == nil {
			ready = false
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting auth service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
