// calctl inspects and maintains AroiCal data directly in a storage backend,
// without going through the API.
// Usage: go run ./cmd/calctl --storage file://./data today
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

var (
	storageURL string
	kvPrefix   string
	tzName     string
)

var rootCmd = &cobra.Command{
	Use:          "calctl",
	Short:        "calctl manages AroiCal profiles and logs",
	Long:         "calctl reads and updates the same stored profile, food logs, weigh-ins and settings the API serves.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		envDefault(cmd, "storage", &storageURL, "STORAGE_URL")
		envDefault(cmd, "prefix", &kvPrefix, "KV_PREFIX")
		envDefault(cmd, "tz", &tzName, "TZ_NAME")
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageURL, "storage", "file://./data", "Storage URL (env STORAGE_URL)")
	rootCmd.PersistentFlags().StringVar(&kvPrefix, "prefix", "aroical:", "Key prefix for redis/mongo (env KV_PREFIX)")
	rootCmd.PersistentFlags().StringVar(&tzName, "tz", "", "IANA zone for day boundaries (env TZ_NAME, default local)")
}

// envDefault fills a flag from the environment unless it was set explicitly.
func envDefault(cmd *cobra.Command, flag string, dst *string, env string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// withStore opens the configured backend and calendar for one command run.
func withStore(ctx context.Context, run func(store kvstore.Store, cal nutrition.Calendar) error) error {
	cal := nutrition.Calendar{Loc: time.Local}
	if tzName != "" {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return fmt.Errorf("invalid --tz %q: %w", tzName, err)
		}
		cal.Loc = loc
	}

	store, err := kvstore.Open(ctx, storageURL, kvPrefix)
	if err != nil {
		return err
	}
	defer store.Close()
	return run(store, cal)
}
