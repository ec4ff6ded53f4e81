// Command migrate manages the journal database schema.
//
//	migrate [-path DIR] [-timeout D] <command> [arg]
//
// Commands: up, down, steps N, force V, version, status, list.
// Without -path (or JOURNAL_DATABASE_MIGRATION_PATH) the migrations compiled into the
// binary are used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-service/internal/config"
	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/observability"
)

const usage = `usage: migrate [flags] <command> [arg]

commands:
  up         apply every pending journal migration
  down       roll back every journal migration
  steps N    apply N migrations, or roll back when N is negative
  force V    record version V as applied without running it
  version    print the applied schema version
  status     list the journal migrations and which are applied
  list       list the journal migrations without connecting

flags:
`

// command is a parsed CLI invocation.
type command struct {
	name string
	n    int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fset := flag.NewFlagSet("migrate", flag.ContinueOnError)
	path := fset.String("path", "", "migrations directory (default: embedded journal migrations)")
	timeout := fset.Duration("timeout", 5*time.Minute, "deadline for connecting and migrating")
	fset.Usage = func() {
		fmt.Fprint(fset.Output(), usage)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return err
	}

	cmd, err := parseCommand(fset.Args())
	if err != nil {
		fset.Usage()
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging).With().
		Str("component", "migrate").
		Str("journal", cfg.Journal.Title).
		Logger()

	dir := cfg.Database.MigrationPath
	if *path != "" {
		dir = *path
	}
	logger = logger.With().Str("source", sourceLabel(dir)).Logger()

	known, err := database.Migrations(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	if cmd.name == "list" {
		for _, m := range known {
			fmt.Printf("%06d  %s\n", m.Version, m.Name)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, dir, logger)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close migrator")
		}
	}()

	if err := apply(migrator, cmd); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logSchema(logger, version, dirty, known)

	if cmd.name == "status" {
		for _, m := range known {
			state := "pending"
			if m.Version <= version {
				state = "applied"
			}
			fmt.Printf("%06d  %-8s %s\n", m.Version, state, m.Name)
		}
	}
	return nil
}

// parseCommand validates the positional arguments.
func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("no command given")
	}
	cmd := command{name: args[0]}

	switch cmd.name {
	case "up", "down", "version", "status", "list":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "steps", "force":
		if len(args) != 2 {
			return command{}, fmt.Errorf("%s takes exactly one number", cmd.name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("%s: %q is not a number", cmd.name, args[1])
		}
		if cmd.name == "steps" && n == 0 {
			return command{}, errors.New("steps: N must not be zero")
		}
		if cmd.name == "force" && n < 0 {
			return command{}, errors.New("force: version must not be negative")
		}
		cmd.n = n
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func apply(migrator *database.Migrator, cmd command) error {
	switch cmd.name {
	case "up":
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("up: %w", err)
		}
	case "down":
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("down: %w", err)
		}
	case "steps":
		if err := migrator.Steps(cmd.n); err != nil {
			return fmt.Errorf("steps %d: %w", cmd.n, err)
		}
	case "force":
		if err := migrator.Force(cmd.n); err != nil {
			return fmt.Errorf("force %d: %w", cmd.n, err)
		}
	}
	return nil
}

func sourceLabel(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}

// logSchema reports where the database stands against the known migrations.
func logSchema(logger zerolog.Logger, version uint, dirty bool, known []database.Migration) {
	var latest uint
	pending := 0
	for _, m := range known {
		latest = m.Version
		if m.Version > version {
			pending++
		}
	}

	ev := logger.Info()
	if dirty {
		ev = logger.Warn()
	}
	ev.Uint("version", version).
		Uint("latest", latest).
		Int("pending", pending).
		Bool("dirty", dirty).
		Msg("journal schema")
}
