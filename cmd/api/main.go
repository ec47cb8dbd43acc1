package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/BeautifulStudio01/salon-scheduler/internal/config"
	dbpkg "github.com/BeautifulStudio01/salon-scheduler/internal/db"
	"github.com/BeautifulStudio01/salon-scheduler/internal/notification"
	"github.com/BeautifulStudio01/salon-scheduler/internal/routes"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
)

func main() {

	_ = godotenv.Load()

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)

	sched := scheduler.NewRedisScheduler(redisClient, scheduler.DefaultQueueKey)
	mailer := notification.NewSMTPMailer(cfg)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	jobHandler := routes.RegisterRoutes(r, db, cfg, sched, mailer)

	worker := scheduler.NewWorker(redisClient, scheduler.DefaultQueueKey, jobHandler, time.Second)
	worker.Start(context.Background())

	log.Printf("Server running on %s", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
