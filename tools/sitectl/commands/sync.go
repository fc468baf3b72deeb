package commands

import (
	"encoding/json"
	"os"

	"github.com/claryon/claryon-site/libs/calendarclient"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	calendarURL   string
	calendarToken string
)

var syncCmd = &cobra.Command{
	Use:   "sync <appointment-id>",
	Short: "Run the calendar sync for one appointment and print the outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		out, invokeErr := calendarclient.New(calendarURL, calendarToken, nil).Invoke(cmd.Context(), id.String())
		if out.StatusCode != 0 {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		return invokeErr
	},
}

func addCalendarFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&calendarURL, "calendar-url", os.Getenv("CALENDAR_SERVICE_URL"), "Calendar event entrypoint URL (defaults to $CALENDAR_SERVICE_URL)")
	cmd.Flags().StringVar(&calendarToken, "token", os.Getenv("CALENDAR_SERVICE_TOKEN"), "Bearer token for the entrypoint (defaults to $CALENDAR_SERVICE_TOKEN)")
}

func init() {
	addCalendarFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
