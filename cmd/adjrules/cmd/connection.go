package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/solatis/adjrules/internal/core/store"
	"github.com/spf13/cobra"
)

var connectionCmd = &cobra.Command{
	Use:     "connection",
	Aliases: []string{"conn"},
	Short:   "Manage saved API connection profiles",
}

var connectionAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Save or replace a connection profile",
	Long: `Saves the tenant URL, username and client id under NAME. The password and
client secret are not stored; set ADJ_API_PASSWORD and ADJ_API_CLIENT_SECRET
when using the profile.`,
	Args: cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		baseURL, _ := cmd.Flags().GetString("base-url")
		username, _ := cmd.Flags().GetString("username")
		clientID, _ := cmd.Flags().GetString("client-id")
		if err := s.connections.Save(ctx, store.Connection{
			Name:     args[0],
			BaseURL:  baseURL,
			Username: username,
			ClientID: clientID,
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved connection %s\n", args[0])
		return nil
	}),
}

var connectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connection profiles",
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		conns, err := s.connections.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tBASE URL\tUSERNAME\tCLIENT ID\tUPDATED")
		for _, c := range conns {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.BaseURL, c.Username, c.ClientID, c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	}),
}

var connectionRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm"},
	Short:   "Delete a connection profile",
	Args:    cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, args []string, s *stores) error {
		if err := s.connections.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed connection %s\n", args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(connectionCmd)
	connectionCmd.AddCommand(connectionAddCmd, connectionListCmd, connectionRemoveCmd)

	connectionAddCmd.Flags().String("base-url", "", "tenant base URL, e.g. https://tenant.example.com")
	connectionAddCmd.Flags().String("username", "", "API username")
	connectionAddCmd.Flags().String("client-id", "", "OAuth client id")
	connectionAddCmd.MarkFlagRequired("base-url")
	connectionAddCmd.MarkFlagRequired("username")
}
