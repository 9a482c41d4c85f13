package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage feedback tokens",
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue [project-id]",
		Short: "Issue a single-use feedback link for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			issued, err := a.feedback.IssueToken(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), issued.Link)
			if issued.Token.ExpiresAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "expires %s\n", issued.Token.ExpiresAt.Format("2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
}
