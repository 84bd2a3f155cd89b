package main

import (
	"fmt"

	"github.com/spf13/cobra"

	jwttoken "trustdash/internal/jwt_token"
)

func newTokenCmd() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an account",
		Long: `Mint an HS256 access token whose subject is the given wallet account.
Intended for local development; regulated deployments use their own issuer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			tokens := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := tokens.GenerateAccessToken(account, ttl)
			if err != nil {
				return fmt.Errorf("mint token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "wallet address the token is issued for")
	cmd.Flags().Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
