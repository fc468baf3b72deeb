package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/claryon/claryon-site/libs/db"
	"github.com/spf13/cobra"
)

var (
	dbURL     string
	accessKey string
)

var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "Operator tooling for the Claryon site backend",
	Long: `sitectl applies database migrations, lists bookings that never reached
the calendar, and re-runs the calendar sync for a single appointment.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", os.Getenv("DATABASE_URL"), "Database connection URL (defaults to $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&accessKey, "access-key", os.Getenv("STORE_ACCESS_KEY"), "Database password override (defaults to $STORE_ACCESS_KEY)")
}

func openDB(ctx context.Context) (*db.Pool, error) {
	if dbURL == "" {
		return nil, errors.New("--db or DATABASE_URL is required")
	}
	return db.Open(ctx, dbURL, db.Options{Password: accessKey, MaxConns: 2})
}
