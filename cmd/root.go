/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/errs"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "aeroqualify",
	Short:        "Aviation quality management: CARs, CAPs, verification, risk and compliance",
	Long:         "AeroQualify QMS core powered by Cobra + Viper + GORM(SQLite no-cgo).",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		level, _ := cmd.Flags().GetString("log-level")
		logger, err := logging.NewLogger(cmd.ErrOrStderr(), format, level)
		if err != nil {
			return err
		}
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	ctx = logging.WithAttrs(ctx, slog.String("app", "aeroqualify"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text|json)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
	rootCmd.PersistentFlags().String("actor-id", "", "Acting user id recorded on writes")
	rootCmd.PersistentFlags().String("actor-name", "", "Acting user display name")
	rootCmd.PersistentFlags().String("actor-email", "", "Acting user e-mail")
	rootCmd.PersistentFlags().String("role", "viewer", "Acting user role (admin|quality_manager|quality_auditor|manager|viewer)")
}
