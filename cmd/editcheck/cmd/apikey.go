package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/auth"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/config"
	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/db"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Issue, list and revoke API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key",
	Long: `Issues a new API key signed with an HMAC secret from EC_HMAC_SECRET or
EC_HMAC_SECRET_N. The key is printed once and cannot be recovered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		secretID, _ := cmd.Flags().GetString("secret-id")

		store, conn, err := openKeyStore()
		if err != nil {
			return err
		}
		defer conn.Close()

		record, key, err := store.Create(name, secretID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "API key ID: %s\n", record.APIKeyID)
		fmt.Fprintf(out, "Name:       %s\n", record.Name)
		fmt.Fprintf(out, "Secret ID:  %s\n", record.SecretID)
		fmt.Fprintf(out, "\n%s\n\nStore this key now. It will not be shown again.\n", key)
		return nil
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, conn, err := openKeyStore()
		if err != nil {
			return err
		}
		defer conn.Close()

		records, err := store.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSECRET\tCREATED\tLAST USED\tSTATUS")
		for _, r := range records {
			lastUsed := "never"
			if r.LastUsedAt.Valid {
				lastUsed = r.LastUsedAt.Time.UTC().Format("2006-01-02 15:04")
			}
			state := "active"
			if r.RevokedAt.Valid {
				state = "revoked"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.APIKeyID, r.Name, r.SecretID,
				r.CreatedAt.UTC().Format("2006-01-02 15:04"), lastUsed, state)
		}
		return w.Flush()
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, conn, err := openKeyStore()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := store.Revoke(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyListCmd, apikeyRevokeCmd)
	apikeyCreateCmd.Flags().String("name", "", "human-readable key name")
	apikeyCreateCmd.Flags().String("secret-id", "", "HMAC secret ID to sign with (default newest)")
	_ = apikeyCreateCmd.MarkFlagRequired("name")
}

// openKeyStore opens the migrated key database.
func openKeyStore() (*auth.Store, *sqlx.DB, error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, err
	}
	if len(secrets) == 0 {
		return nil, nil, fmt.Errorf("no HMAC secrets configured (set EC_HMAC_SECRET)")
	}

	conn, err := db.Open(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.MigrateUp(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return auth.NewStore(secrets, queries), conn, nil
}
