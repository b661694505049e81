// cmd/smartdiet/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smartdiet/internal/server"
)

var (
	transport = flag.String("transport", "http", "Transport mode: http")
	port      = flag.Int("port", 5000, "Port for HTTP transport")
	host      = flag.String("host", "0.0.0.0", "Host address")
	address   = flag.String("address", "", "Address (alias for host)")
	diaryPath = flag.String("diary-path", "data/meals.json", "Meal diary file path")
	version   = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("smartdiet version 1.0.0")
		os.Exit(0)
	}

	// Load .env if present; the OpenAI key and model come from the environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	// Use address if provided, otherwise use host
	hostAddr := *host
	if *address != "" {
		hostAddr = *address
	}

	config := &server.Config{
		Transport: *transport,
		Host:      hostAddr,
		Port:      *port,
		DiaryPath: *diaryPath,
	}

	// Create server
	srv, err := server.NewSmartDietServer(config)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting SmartDiet server on %s:%d", hostAddr, *port)
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Println("Received shutdown signal")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
