package main

import (
	"context"
	"fmt"
	"log"
	"time"

	access "github.com/bohemiyan/crm-access"
	"github.com/bohemiyan/crm-access/internal/config"
	"github.com/bohemiyan/crm-access/internal/db"
	"github.com/bohemiyan/crm-access/internal/routes"
	"github.com/bohemiyan/crm-access/zapLogger"
	"github.com/gofiber/fiber/v2"
)

func main() {
	logFile := zapLogger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Log.Fatalf("Failed to load config: %v", err)
	}

	pgDB, err := db.NewPostgresDB(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to PostgreSQL database")
	defer pgDB.Close()

	redisDB, err := db.NewRedisClient(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize Redis: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to Redis")
	defer redisDB.Close()

	svc, err := access.NewService(access.Config{
		DB:             pgDB.GormDB,
		RedisClient:    redisDB,
		Catalog:        access.DefaultCatalog(),
		CacheTTL:       time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		CachePrefix:    "access:",
		AutoMigrate:    true,
		EnableAuditLog: cfg.EnableAuditLog,
		Logger:         zapLogger.Log,
	})
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize access service: %v", err)
	}

	seeded, err := svc.SeedCatalog(context.Background())
	if err != nil {
		zapLogger.Log.Fatalf("Failed to seed permission catalog: %v", err)
	}
	if seeded > 0 {
		zapLogger.Log.Infof("Seeded %d catalog permissions", seeded)
	}

	app := fiber.New()
	app.Use(zapLogger.FiberLoggingMiddleware(logFile))

	routes.Setup(app, svc)

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	zapLogger.Log.Infof("Server started on port %d", cfg.AppPort)
	log.Fatal(app.Listen(addr))
}
