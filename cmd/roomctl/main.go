// Command roomctl runs desk maintenance against the room store without the
// HTTP server: closing the day from cron, exporting closures, bulk imports,
// and the one-off room type fix-up.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/backend"
	"github.com/dalemusser/roomdesk/internal/app/system/changemark"
	"github.com/dalemusser/roomdesk/internal/app/system/timezones"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger

	storeDriver string
	mongoURI    string
	mongoDB     string
	sqlitePath  string
	postgresDSN string
	redisAddr   string
	redisDB     int
	timezone    string
	timeout     time.Duration
	verbose     bool
)

// openDesk connects the configured store and starts a controller on it. The
// returned func releases the store.
var openDesk = func(ctx context.Context) (*desk.Controller, func(), error) {
	b, err := backend.Open(ctx, backend.Config{
		Driver:        storeDriver,
		MongoURI:      mongoURI,
		MongoDatabase: mongoDB,
		SQLitePath:    sqlitePath,
		PostgresDSN:   postgresDSN,
	})
	if err != nil {
		return nil, nil, err
	}
	release := func() { _ = b.Close(context.Background()) }

	// Writes move the server's change marker when Redis is configured.
	var marker changemark.Marker
	if redisAddr != "" {
		client := changemark.NewRedisClient(redisAddr, os.Getenv("ROOMDESK_REDIS_PASSWORD"), redisDB)
		closeStore := release
		release = func() {
			_ = client.Close()
			closeStore()
		}
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; writing without change marker", zap.Error(err))
		} else {
			marker = changemark.NewRedis(client, "")
		}
	}

	loc, err := timezones.Location(timezone)
	if err != nil {
		release()
		return nil, nil, err
	}
	d := desk.New(b.Rooms, b.Closures, desk.Options{Location: loc, Logger: logger, Marker: marker})
	if _, err := d.Start(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return d, release, nil
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "roomctl",
	Short:         "Room desk maintenance",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		} else if logger == nil {
			logger = zap.NewNop()
		}
		return nil
	},
}

func env(key, def string) string {
	if v := os.Getenv("ROOMDESK_" + key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(env(key, "")); err == nil {
		return n
	}
	return def
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&storeDriver, "driver", env("STORE_DRIVER", backend.DriverMongo), "Room store: mongo, sqlite, postgres")
	pf.StringVar(&mongoURI, "mongo-uri", env("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&mongoDB, "mongo-db", env("MONGO_DATABASE", "roomdesk"), "MongoDB database name")
	pf.StringVar(&sqlitePath, "sqlite", env("SQLITE_PATH", "./roomdesk.db"), "SQLite database file")
	pf.StringVar(&postgresDSN, "postgres-dsn", env("POSTGRES_DSN", ""), "Postgres connection string")
	pf.StringVar(&redisAddr, "redis-addr", env("REDIS_ADDR", ""), "Redis address for the change marker (empty disables)")
	pf.IntVar(&redisDB, "redis-db", envInt("REDIS_DB", 0), "Redis database number")
	pf.StringVar(&timezone, "tz", env("CLOSURE_TIMEZONE", "UTC"), "Timezone that defines the closure day")
	pf.DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(closeDayCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(fixTypesCmd)
	rootCmd.AddCommand(templateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "roomctl:", err)
		os.Exit(1)
	}
}

// withDesk runs fn against an opened desk under the --timeout deadline.
func withDesk(cmd *cobra.Command, fn func(ctx context.Context, d *desk.Controller) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	d, release, err := openDesk(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer release()
	return fn(ctx, d)
}
