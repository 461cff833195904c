// Preflight checks that every store of the integration-test environment is
// reachable before a test run starts, so suite failures point at the system
// under test instead of half-started containers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Stars1233/pathway/fixtures/dynamodb"
	"github.com/Stars1233/pathway/fixtures/kafka"
	"github.com/Stars1233/pathway/fixtures/mongo"
	"github.com/Stars1233/pathway/fixtures/mysql"
	"github.com/Stars1233/pathway/fixtures/postgres"
	"github.com/Stars1233/pathway/internal/build"
	"github.com/Stars1233/pathway/internal/config"
	"github.com/Stars1233/pathway/logger"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigChan
		cancel()
	}()

	app := &cli.App{
		Name:    "preflight",
		Usage:   "Checks that the integration-test stores are reachable",
		Version: build.VersionInfo(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML file overriding the compose-environment endpoints"},
			&cli.StringFlag{Name: "verbosity", Value: "INFO", Usage: "DEBUG | INFO | WARN | ERROR"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "per-store timeout"},
		},
		Action: run,
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "preflight failed: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger.Setup(logger.Options{Verbosity: c.String("verbosity")})

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	timeout := c.Duration("timeout")

	checks := map[string]func(ctx context.Context) error{
		"postgres": func(ctx context.Context) error {
			pg, err := postgres.New(ctx, cfg.Postgres.PostgresSettings())
			if err != nil {
				return err
			}
			return pg.Close(ctx)
		},
		"pgvector": func(ctx context.Context) error {
			pg, err := postgres.NewPgvector(ctx, cfg.Pgvector.PostgresSettings())
			if err != nil {
				return err
			}
			return pg.Close(ctx)
		},
		"questdb": func(ctx context.Context) error {
			qdb, err := postgres.New(ctx, cfg.QuestDB.PostgresSettings())
			if err != nil {
				return err
			}
			return qdb.Close(ctx)
		},
		"mysql": func(ctx context.Context) error {
			my, err := mysql.New(ctx, cfg.MySQL.MySQLSettings())
			if err != nil {
				return err
			}
			return my.Close()
		},
		"mongodb": func(ctx context.Context) error {
			m, err := mongo.New(ctx, cfg.MongoSettings())
			if err != nil {
				return err
			}
			return m.Close(ctx)
		},
		"kafka": func(ctx context.Context) error {
			k, err := kafka.New(ctx, cfg.KafkaSettings())
			if err != nil {
				return err
			}
			return k.Teardown()
		},
		"debezium": func(ctx context.Context) error {
			return checkHTTP(ctx, cfg.Debezium.ConnectorURL)
		},
	}
	if cfg.DynamoDB.Endpoint != "" {
		checks["dynamodb"] = func(ctx context.Context) error {
			d, err := dynamodb.New(ctx, cfg.DynamoDBSettings())
			if err != nil {
				return err
			}
			return d.Ping(ctx)
		}
	}

	eg, egCtx := errgroup.WithContext(c.Context)
	for name, check := range checks {
		eg.Go(func() error {
			ctx, cancel := context.WithTimeout(egCtx, timeout)
			defer cancel()
			started := time.Now()
			if err := check(ctx); err != nil {
				slog.Error("store is not ready", "store", name, "err", err)
				return fmt.Errorf("%s: %w", name, err)
			}
			slog.Info("store is ready", "store", name, "elapsed", time.Since(started).Round(time.Millisecond))
			return nil
		})
	}
	return eg.Wait()
}

func checkHTTP(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
