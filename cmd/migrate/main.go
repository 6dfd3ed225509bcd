package main

import (
	"log"

	"chatrelay-be/internal/config"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if !cfg.Database.Configured() {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Printf("Running AutoMigrate for %d tables (%s)...", len(gateway.Models()), cfg.Database.Driver)
	if err := gateway.AutoMigrate(db); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Success: Database migration completed.")
}
