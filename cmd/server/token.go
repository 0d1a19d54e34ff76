package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shuffler/auth-gateway/internal/config"
	"github.com/shuffler/auth-gateway/internal/token"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect tokens with the configured secret",
	}
	tokenCmd.AddCommand(newTokenIssueCmd(), newTokenInspectCmd())
	return tokenCmd
}

type issueFlags struct {
	Email string `validate:"required,email"`
	Name  string
	Code  string `validate:"required"`
}

func newTokenIssueCmd() *cobra.Command {
	var flags issueFlags

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a token without consulting the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validator.New().Struct(flags); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			tokens, err := loadTokenService()
			if err != nil {
				return err
			}

			tokenString, err := tokens.Issue(token.User{Email: flags.Email, Name: flags.Name}, flags.Code)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), tokenString)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&flags.Name, "name", "", "user display name")
	cmd.Flags().StringVar(&flags.Code, "code", "", "access code recorded in the token (required)")

	return cmd
}

// inspectResult is printed by token inspect. Reason names the rejection
// when the token is not valid.
type inspectResult struct {
	Valid     bool          `json:"valid"`
	Reason    string        `json:"reason,omitempty"`
	Claims    *token.Claims `json:"claims,omitempty"`
	IssuedAt  string        `json:"issuedAt,omitempty"`
	ExpiresAt string        `json:"expiresAt,omitempty"`
}

func newTokenInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Validate a token and print its claims or rejection reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := loadTokenService()
			if err != nil {
				return err
			}

			result := inspectResult{Valid: true}
			claims, validateErr := tokens.Validate(args[0])
			if validateErr != nil {
				result.Valid = false
				result.Reason = token.Reason(validateErr)
				// Show what the token claims even though it was rejected
				claims, _ = token.Inspect(args[0])
			}
			if claims != nil {
				result.Claims = claims
				result.IssuedAt = time.Unix(claims.IssuedAt, 0).UTC().Format(time.RFC3339)
				result.ExpiresAt = claims.ExpiresAtTime().UTC().Format(time.RFC3339)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}

			if validateErr != nil {
				return fmt.Errorf("token rejected: %w", validateErr)
			}
			return nil
		},
	}
}

func loadTokenService() (*token.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return token.NewService([]byte(cfg.JWT.Secret), token.Lifetime), nil
}
