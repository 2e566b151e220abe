// Package main is the entry point for the E-Day ledger migration tool.
// It applies the SQL schema for the sqlite and postgres bucket stores.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/logging"
	"github.com/prn-tf/eday-ledger/internal/storage/backend"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("E-Day Ledger Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		if err := runMigrate(command == "up"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runMigrate(apply bool) error {
	cfg, err := config.Load(os.Getenv("EDAY_CONFIG"))
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	factory := backend.NewFactory(cfg, logger)
	ctx := context.Background()

	var status backend.MigrationStatus
	if apply {
		status, err = factory.Migrate(ctx)
	} else {
		status, err = factory.Status(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Driver:  %s\n", status.Driver)
	fmt.Printf("Current: %d\n", status.Current)
	fmt.Printf("Latest:  %d\n", status.Latest)
	if status.Pending() {
		fmt.Println("Migrations pending; run 'eday-migrate up'")
	} else {
		fmt.Println("Schema is up to date")
	}
	return nil
}

func printUsage() {
	fmt.Println(`E-Day Ledger Migration Tool

Usage:
  eday-migrate <command>

Commands:
  up          Apply all pending migrations
  status      Show the current and latest schema version
  version     Print version information
  help        Show this help message

The database is selected by the usual configuration: a config file named
by EDAY_CONFIG, or EDAY_DATABASE_* environment variables.

Examples:
  EDAY_DATABASE_DRIVER=postgres eday-migrate up
  EDAY_DATABASE_DRIVER=sqlite EDAY_DATABASE_PATH=./data/eday.db eday-migrate status`)
}
