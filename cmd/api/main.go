package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	v1 "github.com/apardew63/wetarseel-server/cmd/api/router/v1"
	"github.com/apardew63/wetarseel-server/internal/config"
	"github.com/apardew63/wetarseel-server/internal/identity"
	"github.com/apardew63/wetarseel-server/internal/infrastructure/backplane"
	cacheadapter "github.com/apardew63/wetarseel-server/internal/infrastructure/cache/adapter"
	"github.com/apardew63/wetarseel-server/internal/infrastructure/database"
	queueadapter "github.com/apardew63/wetarseel-server/internal/infrastructure/queue/adapter"
	"github.com/apardew63/wetarseel-server/internal/infrastructure/realtime"
	"github.com/apardew63/wetarseel-server/internal/pkg/campaign/application/task"
	campaignrepo "github.com/apardew63/wetarseel-server/internal/pkg/campaign/persistence/repository/adapter"
)

const roomsChannel = "wetarseel:rooms"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	cfg := config.Load()

	// Storage is a hard dependency; refuse to start without it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	// The backplane is an optimization. A failed connect leaves the hub in
	// single-process mode and the server still comes up.
	src := backplane.Source{
		URL:      cfg.RedisURL,
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TLS:      cfg.RedisTLS,
	}
	bp := backplane.New(src, roomsChannel)
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bp.Connect(connectCtx); err != nil {
		log.Printf("Warning: backplane unavailable, continuing standalone: %v", err)
	}
	cancelConnect()
	defer bp.Close()

	hub := realtime.NewHub()
	hub.Adapt(bp)
	defer hub.Close()

	idClient, err := identity.NewClient(cfg.IdentityURL, cfg.IdentityServiceKey)
	if err != nil {
		log.Fatalf("identity provider misconfigured: %v", err)
	}
	hub.AttachAuth(identity.NewGate(idClient))

	// Cache and queue share the backplane's resolved Redis configuration.
	redisOpts := backplane.Configure(src)
	cache := cacheadapter.NewRedisAdapter(redis.NewClient(redisOpts))
	defer cache.Close()

	connOpt := queueadapter.ConnOpt(redisOpts)
	queueClient := queueadapter.NewAsynqClient(connOpt)
	defer queueClient.Close()

	queueServer := queueadapter.NewAsynqServer(connOpt, 10, map[string]int{"default": 1, "campaigns": 2})
	task.NewDispatchCampaignTask(campaignrepo.NewPgCampaignRepository(pool)).Register(queueServer)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go func() {
		if err := queueServer.Run(workerCtx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()
	defer stopWorkers()

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, v1.Deps{
		Pool:     pool,
		Hub:      hub,
		Cache:    cache,
		Queue:    queueClient,
		Identity: idClient,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
