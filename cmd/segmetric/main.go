// Package main implements the segmetric server binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/segmetric/segmetric/internal/app"
	"github.com/segmetric/segmetric/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		dataDir     string
		httpAddr    string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Segmetric - Pivot & Bucketing Engine for User Segmentation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: segmetric [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  segmetric --data-dir /data/segmetric\n")
		fmt.Fprintf(os.Stderr, "  segmetric --config /etc/segmetric/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SEGMETRIC_DATA_DIR       Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  SEGMETRIC_HTTP_ADDR      HTTP listen address\n")
		fmt.Fprintf(os.Stderr, "  SEGMETRIC_STORAGE_TYPE   Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  SEGMETRIC_S3_BUCKET      S3 bucket for snapshots\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("segmetric version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := loadConfig(configFile, dataDir, httpAddr)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	printBanner(cfg)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// loadConfig loads configuration from file, environment, and flags,
// in that priority order.
func loadConfig(configFile, dataDir, httpAddr string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}

	return cfg, nil
}

// printBanner prints the startup banner with a configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                      SEGMETRIC                            ║")
	log.Printf("║     Pivot & Bucketing Engine for User Segmentation        ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  HTTP:     %s", cfg.HTTP.Addr)
	log.Printf("  Data Dir: %s", cfg.DataDir)
	log.Printf("  Storage:  %s", cfg.Storage.Type)
	if cfg.Storage.Type == "s3" {
		log.Printf("  Bucket:   %s", cfg.Storage.S3.Bucket)
	}
	log.Printf("")
}
