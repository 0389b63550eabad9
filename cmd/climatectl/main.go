package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"climate-server/internal/config"
	"climate-server/internal/db"
	"climate-server/internal/logging"
	"climate-server/internal/migrate"
	"climate-server/internal/seed"
)

const appName = "climatectl"

var version = logging.DevVersion

const usage = `usage: %s <command>
  migrate                               apply pending schema migrations
  seed <stations.csv> <measurements.csv> replace the dataset with the CSV contents
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	switch args[0] {
	case "migrate":
		if len(args) != 1 {
			return fmt.Errorf("unexpected arguments %v", args[1:])
		}
	case "seed":
		if len(args) != 3 {
			return fmt.Errorf("want <stations.csv> <measurements.csv>, got %d arguments", len(args)-1)
		}
	default:
		return errors.New("unknown command")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if args[0] == "migrate" {
		applied, err := migrate.Run(ctx, conn)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "migrations applied: %d\n", len(applied))
		return nil
	}

	stations, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer stations.Close()
	measurements, err := os.Open(args[2])
	if err != nil {
		return err
	}
	defer measurements.Close()

	res, err := seed.Load(ctx, conn, stations, measurements)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "loaded %d stations, %d measurements\n", res.Stations, res.Measurements)
	return nil
}
