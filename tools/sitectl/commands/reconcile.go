package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/claryon/claryon-site/libs/calendarclient"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

var (
	olderThan  time.Duration
	reconLimit int
	resync     bool
)

type pendingRow struct {
	ID                string
	ClientEmail       string
	ServiceName       string
	PreferredDateTime time.Time
	CreatedAt         time.Time
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "List appointments that still have no calendar event",
	Long: `reconcile lists appointments older than --older-than whose calendar event id
is still empty. With --resync each of them is sent to the calendar service again;
event ids are derived from the appointment id, so a row whose event was created
before a failed update is repaired without a duplicate.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pool, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		rows, err := pendingAppointments(cmd.Context(), pool, time.Now().Add(-olderThan), reconLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "no appointments awaiting a calendar event")
			return nil
		}
		printPending(out, rows)

		if !resync {
			return nil
		}
		client := calendarclient.New(calendarURL, calendarToken, nil)
		failed := 0
		for _, r := range rows {
			res, err := client.Invoke(cmd.Context(), r.ID)
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s: %v\n", r.ID, err)
				continue
			}
			fmt.Fprintf(out, "%s: event %s (reused=%t)\n", r.ID, res.EventID, res.Reused)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d appointments failed to sync", failed, len(rows))
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "Only list appointments created at least this long ago")
	reconcileCmd.Flags().IntVar(&reconLimit, "limit", 100, "Maximum rows to list")
	reconcileCmd.Flags().BoolVar(&resync, "resync", false, "Invoke the calendar service for every listed appointment")
	addCalendarFlags(reconcileCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func pendingAppointments(ctx context.Context, q querier, createdBefore time.Time, limit int) ([]pendingRow, error) {
	rows, err := q.Query(ctx, `
		SELECT id::text, client_email, service_name, preferred_datetime, created_at
		FROM appointments
		WHERE google_calendar_event_id IS NULL AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending appointments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pendingRow, error) {
		var r pendingRow
		err := row.Scan(&r.ID, &r.ClientEmail, &r.ServiceName, &r.PreferredDateTime, &r.CreatedAt)
		return r, err
	})
}

func printPending(w io.Writer, rows []pendingRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tSERVICE\tPREFERRED\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.ClientEmail, r.ServiceName,
			r.PreferredDateTime.UTC().Format(time.RFC3339), r.CreatedAt.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}
