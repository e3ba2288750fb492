// Package main loads actor snapshot fixtures from YAML into the snapshot store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cory-johannsen/knave/internal/config"
	"github.com/cory-johannsen/knave/internal/content"
	"github.com/cory-johannsen/knave/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "snapshot directory; empty uses content.snapshot_dir")
	dryRun := flag.Bool("dry-run", false, "validate the snapshots without writing them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}
	dir := *sourceDir
	if dir == "" {
		dir = cfg.Content.SnapshotDir
	}

	start := time.Now()
	snaps, err := content.LoadSnapshotsFromDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("validated %d snapshots in %s\n", len(snaps), time.Since(start).Round(time.Millisecond))
		return
	}
	if !cfg.Database.Enabled {
		fmt.Fprintln(os.Stderr, "error: database.enabled is false; use -dry-run to validate only")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := pool.Snapshots()
	for _, snap := range snaps {
		a := snap.Actor.Common()
		if err := repo.Save(ctx, snap); err != nil {
			fmt.Fprintf(os.Stderr, "error: saving %s (%s): %v\n", a.Name, a.ID, err)
			os.Exit(1)
		}
		fmt.Printf("saved %s %s (%s) with %d items\n", snap.Actor.Kind(), a.Name, a.ID, len(snap.Items))
	}
	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
