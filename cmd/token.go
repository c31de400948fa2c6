package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap/config"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/transport/httpapi"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for the --actor-* and --role flags",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Context(), cfgFile)
		if err != nil {
			return errs.Wrap(err, "load config")
		}
		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		ttl := cfg.HTTP.TokenTTL
		if override, _ := cmd.Flags().GetDuration("ttl"); override > 0 {
			ttl = override
		}

		tokens, err := httpapi.NewTokens(cfg.HTTP.JWTSecret, cfg.HTTP.JWTIssuer, ttl)
		if err != nil {
			return err
		}
		signed, err := tokens.Issue(actor)
		if err != nil {
			return errs.Wrap(err, "issue token")
		}
		return printf(cmd, "%s\n", signed)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Duration("ttl", time.Duration(0), "Token lifetime, overrides http.token_ttl")
}
