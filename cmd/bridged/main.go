package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/operaton-labs/enginebridge/internal/config"
	"github.com/operaton-labs/enginebridge/internal/logging"
	"github.com/operaton-labs/enginebridge/internal/server"
)

func main() {
	port := flag.String("port", "", "Listen port (overrides PORT)")
	store := flag.String("store", "", "Store file path (overrides STORE_PATH)")
	manifest := flag.String("manifest", "", "Bundle manifest path (overrides BUNDLE_MANIFEST)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Host.Port = *port
	}
	if *store != "" {
		cfg.Host.StorePath = *store
	}
	if *manifest != "" {
		cfg.Host.ManifestPath = *manifest
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(cfg); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
