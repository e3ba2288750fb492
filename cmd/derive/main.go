// Package main derives one actor snapshot file and prints the result as YAML.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/knave/internal/config"
	"github.com/cory-johannsen/knave/internal/content"
	"github.com/cory-johannsen/knave/internal/derivesvc"
	"github.com/cory-johannsen/knave/internal/game/derive"
	"github.com/cory-johannsen/knave/internal/game/progression"
	"github.com/cory-johannsen/knave/internal/game/upkeep"
	"github.com/cory-johannsen/knave/internal/observability"
	"github.com/cory-johannsen/knave/internal/scripting"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults")
	actorPath := flag.String("actor", "", "path to an actor snapshot YAML file")
	apply := flag.Bool("apply", false, "print the snapshot with the result applied instead of the result")
	rest := flag.String("rest", "", "rest the actor before deriving: standard or safe_haven")
	flag.Parse()

	if *actorPath == "" {
		fmt.Fprintln(os.Stderr, "usage: derive -actor <snapshot.yaml> [-config <file>] [-apply] [-rest <kind>]")
		os.Exit(2)
	}
	if err := run(*configPath, *actorPath, *apply, upkeep.RestKind(*rest)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, actorPath string, apply bool, rest upkeep.RestKind) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	tables := progression.DefaultTables()
	if cfg.Content.TablesFile != "" {
		if tables, err = progression.LoadTables(cfg.Content.TablesFile); err != nil {
			return err
		}
	}

	snap, err := content.LoadSnapshotFromFile(actorPath)
	if err != nil {
		return err
	}
	if rest != "" {
		if snap, err = upkeep.RestSnapshot(snap, rest); err != nil {
			return err
		}
	}
	var order derivesvc.Orderer
	if cfg.Scripting.DropOrderScript != "" {
		script, err := scripting.LoadDropOrder(cfg.Scripting.DropOrderScript, cfg.Scripting.InstructionLimit, logger)
		if err != nil {
			return err
		}
		defer script.Close()
		order = script
	}

	res, err := derivesvc.OrderAndDerive(derive.NewComposer(tables), order, snap, cfg.Rules)
	if err != nil {
		return err
	}
	observability.Warnings(logger, snap.Actor.Common().ID, res.Warnings)

	var out any = res
	if apply {
		out = derive.Apply(snap, res)
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
