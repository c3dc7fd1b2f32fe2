package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"photocapture/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	runErr := application.Run(ctx)
	stop()
	if err := application.Close(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Failed to start server: %v", runErr)
	}
}
