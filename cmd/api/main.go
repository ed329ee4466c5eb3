package main

import (
	"context"
	"log"

	"fleet-office/internal/core/cache"
	"fleet-office/internal/core/config"
	"fleet-office/internal/core/db"
	"fleet-office/internal/core/logger"
	"fleet-office/internal/core/server"
	"fleet-office/internal/features/auth"
	reportadapter "fleet-office/internal/features/reports/adapters"
	reporthandler "fleet-office/internal/features/reports/handler"
	reportservice "fleet-office/internal/features/reports/service"
	teleadapter "fleet-office/internal/features/telemetry/adapters"
	telehandler "fleet-office/internal/features/telemetry/handler"
	teleservice "fleet-office/internal/features/telemetry/service"
	tripadapter "fleet-office/internal/features/trips/adapters"
	triphandler "fleet-office/internal/features/trips/handler"
	tripservice "fleet-office/internal/features/trips/service"

	"go.uber.org/zap"
)

// @title Fleet Office API
// @version 1.0
// @description Trip lifecycle tracking and report synthesis for vehicle fleets.
// @contact.name API Support
// @contact.email support@fleetoffice.in
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx := context.Background()

	pool, err := db.ConnectPostgres(ctx, cfg.Database.URL)
	if err != nil {
		l.Fatal("Postgres connection failed", zap.Error(err))
	}
	defer pool.Close()
	l.Info("Postgres connection verified")

	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Redis connection failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	// Telemetry provider gateway shared by listings, the lifecycle engine and
	// the report synthesizer.
	provider := teleadapter.NewSpeedotrackAdapter(cfg.Telemetry)
	telemetrySvc := teleservice.NewTelemetryService(provider, redisCache, cfg.Redis.CacheTTL)
	telemetryHdl := telehandler.NewTelemetryHandler(telemetrySvc)

	tripRepo := tripadapter.NewPostgresTripRepository(pool)
	tripSvc := tripservice.NewTripService(tripRepo, telemetrySvc)
	tripHdl := triphandler.NewTripHandler(tripSvc)

	lifecycleSvc := tripservice.NewLifecycleService(tripRepo, cfg.Trips.LegMatchMode)
	webhookHdl := triphandler.NewWebhookHandler(lifecycleSvc)

	exporter := reportadapter.NewExcelExporter(cfg.Reports.ExportDir)
	artifactRepo := reportadapter.NewPostgresArtifactRepository(pool)
	reportSvc := reportservice.NewReportService(tripRepo, telemetrySvc, exporter, artifactRepo)
	reportHdl := reporthandler.NewReportHandler(reportSvc)

	srv := server.New(cfg)

	// Tracker platform callbacks authenticate by shared knowledge of the
	// webhook URL, not by bearer token.
	srv.App.Get("/webhooks/zone-in", webhookHdl.ZoneIn)
	srv.App.Get("/webhooks/zone-out", webhookHdl.ZoneOut)

	authenticated := srv.App.Group("/", auth.Middleware(cfg.Auth.JWTSecret))
	authenticated.Get("/zones", telemetryHdl.GetUserZones)
	authenticated.Get("/devices", telemetryHdl.GetUserDevices)

	authenticated.Post("/trips", tripHdl.CreateTrip)
	authenticated.Get("/trips", tripHdl.ListTrips)
	authenticated.Get("/trips/:id", tripHdl.GetTrip)
	authenticated.Put("/trips/:id", tripHdl.UpdateTrip)
	authenticated.Delete("/trips/:id", tripHdl.DeleteTrip)

	authenticated.Post("/trip/report", reportHdl.GetReport)
	authenticated.Post("/trip/report/excel", reportHdl.ExportReport)
	authenticated.Get("/trip/reports", reportHdl.ListReports)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
