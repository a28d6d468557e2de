package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the API key database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.MigrateUp(conn); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		statuses, err := db.MigrateStatus(conn)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tAPPLIED AT\tDURATION")
		for _, s := range statuses {
			state, appliedAt, duration := "pending", "-", "-"
			if s.Applied {
				state = "applied"
				duration = fmt.Sprintf("%dms", s.ExecutionMs)
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, state, appliedAt, duration)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}
