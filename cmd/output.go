package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

// actorFromFlags reads the persistent --actor-* and --role flags.
func actorFromFlags(cmd *cobra.Command) (qms.Actor, error) {
	id, _ := cmd.Flags().GetString("actor-id")
	name, _ := cmd.Flags().GetString("actor-name")
	email, _ := cmd.Flags().GetString("actor-email")
	rawRole, _ := cmd.Flags().GetString("role")

	role, err := qms.ParseRole(rawRole)
	if err != nil {
		return qms.Actor{}, errs.Wrap(err, "parse --role")
	}
	return qms.Actor{
		ID:    strings.TrimSpace(id),
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		Role:  role,
	}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errs.Wrap(err, "write json output")
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) error {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...); err != nil {
		return errs.Wrap(err, "write output")
	}
	return nil
}

// readInput reads a file path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errs.Wrap(err, "read stdin")
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read %s", path)
	}
	return raw, nil
}
