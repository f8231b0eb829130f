// Command sendpending delivers every work log notification whose scheduled
// send time has passed. Run it from cron; the claim inside the dispatcher
// makes overlapping runs and concurrent send-now requests safe.
package main

import (
	"context"
	"log"
	"time"

	"stockbrain-system/config"
	"stockbrain-system/internal/database"
	workloghandler "stockbrain-system/internal/services/worklog/handler"
)

func main() {
	cfg := config.LoadConfig()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.App.Timezone, err)
	}

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	dispatcher := workloghandler.NewEmailDispatcher(db, loc)

	sent, failed, err := dispatcher.SweepDue(context.Background())
	if err != nil {
		log.Fatalf("Sweep query failed: %v", err)
	}
	log.Printf("Pending work log notifications: sent=%d, failed=%d", sent, failed)
}
