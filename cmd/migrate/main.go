package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	dsnEnv         = "CHECKOUT_POSTGRES_DSN"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// migrationStore - операции Store, нужные CLI.
type migrationStore interface {
	MigrateUp(ctx context.Context, steps int) (int, error)
	MigrateDown(ctx context.Context, steps int) (int, error)
	Status(ctx context.Context) (postgres.MigrationStatus, error)
	Close() error
}

// openStore подменяется в тестах.
var openStore = func(ctx context.Context, dsn string) (migrationStore, error) {
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newApp(out io.Writer) *cli.App {
	stepsFlag := &cli.IntFlag{
		Name:  "steps",
		Usage: "number of migrations to apply or roll back",
	}

	return &cli.App{
		Name:      "migrate",
		Usage:     "apply checkout database migrations",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "PostgreSQL DSN",
				EnvVars: []string{dsnEnv},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "overall timeout",
				Value: defaultTimeout,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending migrations (all by default)",
				Flags: []cli.Flag{stepsFlag},
				Action: withStore(func(ctx context.Context, c *cli.Context, store migrationStore) error {
					applied, err := store.MigrateUp(ctx, c.Int("steps"))
					if err != nil {
						return fmt.Errorf("migrate up failed: %w", err)
					}
					return printStatus(ctx, c.App.Writer, store, fmt.Sprintf("migrate up ok: applied=%d", applied))
				}),
			},
			{
				Name:  "down",
				Usage: "roll back migrations (one by default)",
				Flags: []cli.Flag{stepsFlag},
				Action: withStore(func(ctx context.Context, c *cli.Context, store migrationStore) error {
					steps := c.Int("steps")
					if steps <= 0 {
						steps = 1
					}
					rolled, err := store.MigrateDown(ctx, steps)
					if err != nil {
						return fmt.Errorf("migrate down failed: %w", err)
					}
					return printStatus(ctx, c.App.Writer, store, fmt.Sprintf("migrate down ok: rolled_back=%d", rolled))
				}),
			},
			{
				Name:  "status",
				Usage: "show applied and pending migrations",
				Action: withStore(func(ctx context.Context, c *cli.Context, store migrationStore) error {
					return printStatus(ctx, c.App.Writer, store, "migration status")
				}),
			},
		},
	}
}

type storeAction func(ctx context.Context, c *cli.Context, store migrationStore) error

func withStore(action storeAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		dsn := strings.TrimSpace(c.String("dsn"))
		if dsn == "" {
			return errors.New(dsnEnv + " (or --dsn) is required")
		}

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()

		store, err := openStore(ctx, dsn)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		defer store.Close()

		return action(ctx, c, store)
	}
}

func printStatus(ctx context.Context, out io.Writer, store migrationStore, prefix string) error {
	status, err := store.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s: version=%d applied=%d pending=%d\n",
		prefix, status.Current, status.Applied, len(status.Pending))
	for _, name := range status.Pending {
		_, _ = fmt.Fprintf(out, "  pending %s\n", name)
	}
	return err
}
