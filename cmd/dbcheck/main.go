package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"chatrelay-be/internal/config"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/database"

	"github.com/fatih/color"
)

// cell pads before coloring so escape codes do not break alignment.
func cell(ok bool) string {
	if ok {
		return color.GreenString("%-8s", "yes")
	}
	return color.RedString("%-8s", "no")
}

func main() {
	cfg := config.Load()

	var gw gateway.Gateway = gateway.NewOffline()
	if cfg.Database.Configured() {
		db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection)
		if err != nil {
			color.Red("Failed to connect: %v", err)
			os.Exit(1)
		}
		gw = gateway.NewGormGateway(db, logger.NewNopLogger())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	color.Cyan("Checking database tables (%s)\n", cfg.Database.Driver)
	report := gw.CheckHealth(ctx)

	fmt.Printf("%-16s %-8s %-8s %-8s %s\n", "TABLE", "EXISTS", "READ", "WRITE", "ERROR")
	for _, table := range gateway.Tables {
		h, ok := report.Tables[table]
		if !ok {
			fmt.Printf("%-16s %s\n", table, color.YellowString("not checked"))
			continue
		}
		fmt.Printf("%-16s %s %s %s %s\n", table, cell(h.Exists), cell(h.CanRead), cell(h.CanWrite), h.Error)
	}

	if !report.Success {
		msg := "Some database tables may be missing or inaccessible. Please check your setup."
		if report.Error != "" {
			msg = report.Error
		}
		color.Red("\nDatabase Setup Issue: %s", msg)
		os.Exit(1)
	}
	color.Green("\nAll tables exist and are readable and writable.")
}
