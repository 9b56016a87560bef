package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/solatis/adjrules/internal/core/config"
	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the local HTTP service",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an API key; the key is printed once",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		secrets, err := config.HMACSecrets()
		if err != nil {
			return fmt.Errorf("failed to load HMAC secrets: %w", err)
		}

		secretID, _ := cmd.Flags().GetString("secret-id")
		if secretID == "" {
			if len(secrets) != 1 {
				return fmt.Errorf("%d HMAC secrets configured, choose one with --secret-id", len(secrets))
			}
			for id := range secrets {
				secretID = id
			}
		}
		secret, ok := secrets[secretID]
		if !ok {
			return fmt.Errorf("secret %s not configured (set %s)", secretID, config.EnvHMACSecret)
		}

		key, rec, err := s.apiKeys.Create(ctx, args[0], secretID, secret)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created api key %s (%s)\n%s\n", rec.ID, rec.Name, key)
		return nil
	}),
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		keys, err := s.apiKeys.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCREATED\tLAST USED\tREVOKED")
		for _, k := range keys {
			lastUsed := "-"
			if k.LastUsedAt.Valid {
				lastUsed = k.LastUsedAt.Time.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", k.ID, k.Name, k.CreatedAt.Format("2006-01-02 15:04"), lastUsed, k.Revoked())
		}
		return tw.Flush()
	}),
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		if err := s.apiKeys.Revoke(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked api key %s\n", args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyListCmd, apikeyRevokeCmd)
	apikeyCreateCmd.Flags().String("secret-id", "", "HMAC secret id to sign with (required when several are configured)")
}
