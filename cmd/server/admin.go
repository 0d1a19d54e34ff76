package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shuffler/auth-gateway/internal/attempt"
	"github.com/shuffler/auth-gateway/internal/config"
	"github.com/shuffler/auth-gateway/internal/database"
	"github.com/shuffler/auth-gateway/internal/ratelimit"
	"github.com/spf13/cobra"
)

var (
	errRedisNotConfigured    = errors.New("REDIS_URL is not set")
	errDatabaseNotConfigured = errors.New("DATABASE_URL is not set")
)

func newRateLimitCmd() *cobra.Command {
	rateLimitCmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect and reset verify rate limits",
	}

	statusCmd := &cobra.Command{
		Use:   "status <ip>",
		Short: "Show failed attempts and lockout for a client IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLimiter(cmd.Context(), func(limiter *ratelimit.Limiter) error {
				ip := args[0]
				st, err := limiter.Status(cmd.Context(), ip)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ip:         %s\n", ip)
				fmt.Fprintf(out, "failures:   %d\n", st.Failures)
				if st.Lockout > 0 {
					fmt.Fprintf(out, "locked for: %s\n", st.Lockout.Round(time.Second))
				} else {
					fmt.Fprintf(out, "remaining:  %d\n", st.Remaining)
				}
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <ip>",
		Short: "Lift a lockout and reset the failure counter for a client IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLimiter(cmd.Context(), func(limiter *ratelimit.Limiter) error {
				if err := limiter.ClearLockout(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", args[0])
				return nil
			})
		},
	}

	rateLimitCmd.AddCommand(statusCmd, clearCmd)
	return rateLimitCmd
}

func withLimiter(ctx context.Context, fn func(*ratelimit.Limiter) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.RateLimitEnabled() {
		return errRedisNotConfigured
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	return fn(ratelimit.NewLimiter(
		redisClient.Client,
		cfg.RateLimit.Window,
		cfg.RateLimit.MaxAttempts,
		cfg.RateLimit.LockoutDuration,
	))
}

func newAttemptsCmd() *cobra.Command {
	attemptsCmd := &cobra.Command{
		Use:   "attempts",
		Short: "Query the verification attempt log",
	}

	var since time.Duration
	failuresCmd := &cobra.Command{
		Use:   "failures <ip>",
		Short: "List recent failed verifications from a client IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.AttemptLogEnabled() {
				return errDatabaseNotConfigured
			}

			db, err := database.NewPostgresDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			attempts, err := attempt.NewRepository(db.DB).RecentFailures(cmd.Context(), args[0], time.Now().Add(-since))
			if err != nil {
				return err
			}

			return printAttempts(cmd, attempts)
		},
	}
	failuresCmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to look")

	attemptsCmd.AddCommand(failuresCmd)
	return attemptsCmd
}

func printAttempts(cmd *cobra.Command, attempts []attempt.Attempt) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tREASON\tCODE HASH")
	for _, a := range attempts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.AttemptedAt.UTC().Format(time.RFC3339), a.Reason, shortHash(a.CodeHash))
	}
	return w.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
