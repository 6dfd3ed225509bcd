package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay-be/internal/bootstrap"
	"chatrelay-be/internal/config"
	"chatrelay-be/internal/server"
	"chatrelay-be/internal/tracer"
	"chatrelay-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	shutdownTracer, err := tracer.InitTracer(context.Background(), cfg.Telemetry)
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	}
	defer shutdownTracer(context.Background())

	var gormDB *gorm.DB
	if cfg.Database.Configured() {
		db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := bootstrap.NewContainer(ctx, gormDB, cfg)
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	container.Shutdown(shutdownCtx)
}
