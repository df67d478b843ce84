package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfndi/wellcast-go/internal/middleware"
)

func newTokenCmd() *cobra.Command {
	var (
		userID   string
		role     string
		secret   string
		validFor time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for local testing",
		Long: `Signs a JWT the API accepts. The secret defaults to the JWT_SECRET
environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}

			token, err := middleware.NewAuthMiddleware(secret, true).GenerateToken(userID, role, validFor)
			if err != nil {
				return fmt.Errorf("signing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Subject the token is issued to (required)")
	cmd.Flags().StringVar(&role, "role", "", "Optional role, e.g. manager")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	cmd.Flags().DurationVar(&validFor, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
