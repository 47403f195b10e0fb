/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/auth"
	"github.com/spf13/cobra"
)

// issueTokenCmd 签发开发环境使用的访问令牌
var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue a signed access token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is not configured")
		}

		userID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		officeID, _ := cmd.Flags().GetString("office")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		token, expiresAt, err := validator.GenerateToken(userID, name, officeID, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueTokenCmd)

	issueTokenCmd.Flags().String("user", "", "User ID (sub claim)")
	issueTokenCmd.Flags().String("name", "", "User display name")
	issueTokenCmd.Flags().String("office", "", "Office ID")
	issueTokenCmd.Flags().Duration("ttl", 8*time.Hour, "Token lifetime")
	_ = issueTokenCmd.MarkFlagRequired("user")
	_ = issueTokenCmd.MarkFlagRequired("office")
}
