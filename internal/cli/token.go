package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"quiz-scoring-service/internal/auth"
	"quiz-scoring-service/internal/config"
)

// NewTokenCmd issues a bearer token for local development and manual testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc := auth.NewService(cfg.AuthSecret(), config.TTLDuration(cfg.Auth.TokenTTL, 0))
			token, err := svc.IssueToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the token subject")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
