package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurpe/cleaning-contracts/internal/app"
	"github.com/nurpe/cleaning-contracts/internal/auth"
	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/logger"
	"github.com/nurpe/cleaning-contracts/internal/model"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply every date-driven transition that is due and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, _ := cmd.Flags().GetString("at")
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log := logger.New(cfg.Environment, logger.FileSink{
				Path:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
			})

			application, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer application.Close()

			summary, runErr := application.Services.Sweep.Run(cmd.Context(), now)
			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return runErr
		},
	}

	cmd.Flags().String("at", "", "Sweep as of this RFC3339 time instead of now")

	return cmd
}

// tokenCmd issues a provider access token for local testing.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			providerID, _ := cmd.Flags().GetUint64("provider")
			userID, _ := cmd.Flags().GetUint64("user")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			if providerID == 0 {
				return fmt.Errorf("--provider is required")
			}

			token, err := auth.NewParser(secret).Issue(model.Principal{
				UserID:     userID,
				ProviderID: providerID,
				Role:       model.Role(role),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("secret", "", "JWT_ACCESS_SECRET of the target service")
	cmd.Flags().Uint64("provider", 0, "Provider id")
	cmd.Flags().Uint64("user", 1, "User id")
	cmd.Flags().String("role", string(model.RoleProvider), "PROVIDER or STAFF")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
