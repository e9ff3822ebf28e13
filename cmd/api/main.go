package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/fieldserve/jobrunner/internal/api"
	"github.com/fieldserve/jobrunner/internal/config"
	"github.com/fieldserve/jobrunner/internal/notify"
	"github.com/fieldserve/jobrunner/internal/queue"
	"github.com/fieldserve/jobrunner/internal/storage/postgres"
	"github.com/fieldserve/jobrunner/middleware"
	"github.com/fieldserve/jobrunner/migrations"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting API...")

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var q queue.Queue
	switch cfg.DeliveryMode {
	case config.DeliveryPush:
		dispatcher := notify.NewHTTPDispatcher(cfg.DispatcherURL, cfg.DispatcherToken, cfg.DispatcherTimeout)
		q = queue.NewPushQueue(dispatcher, logger)
	default:
		dbCfg, err := postgres.LoadConfigFromEnv(ctx)
		if err != nil {
			log.Fatal("Failed to load db config: ", err)
		}

		db, err := postgres.ConnectDB(dbCfg)
		if err != nil {
			log.Fatal("Connection failed: ", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("Failed to unwrap db handle: ", err)
		}
		if err := migrations.Up(sqlDB); err != nil {
			log.Fatal("Migrations failed: ", err)
		}

		q = queue.NewTableQueue(postgres.NewQueueRepository(db), cfg.MaxAttempts, logger)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	api.NewJobHandler(q).Routes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("API listening on :%s (delivery mode %s)", port, cfg.DeliveryMode)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed: ", err)
	}
}
