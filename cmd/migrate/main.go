// Package main provides the run-history schema migration runner.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/config"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("migrations", "migrations", "migrations directory")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all; required for down)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	n := *steps
	switch *direction {
	case "up":
	case "down":
		if n <= 0 {
			log.Fatalf("direction down requires -steps > 0")
		}
		n = -n
	default:
		log.Fatalf("invalid direction %q: must be 'up' or 'down'", *direction)
	}

	status, err := postgres.Migrate(cfg.Database.DSN(), *dir, n)
	if err != nil {
		log.Fatalf("%v", err)
	}

	elapsed := time.Since(start)
	if !status.Changed {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", status.Version, status.Dirty, elapsed)
		return
	}
	fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, status.Version, status.Dirty, elapsed)
}
