package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/usecase/capa"
)

// schemaTargets are the documents accepted by import commands and the API.
var schemaTargets = map[string]any{
	"register-batch": capa.RegisterBatch{},
	"risk":           qms.RiskEntry{},
	"roster":         qms.Roster{},
	"car":            qms.CAR{},
	"cap":            qms.CAP{},
	"verification":   qms.Verification{},
}

var dateType = reflect.TypeOf(qms.Date{})

var schemaCmd = &cobra.Command{
	Use:   "schema <name>",
	Short: "Print the JSON schema of an import or API document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, ok := schemaTargets[strings.TrimSpace(args[0])]
		if !ok {
			return fmt.Errorf("unknown schema %q (want one of %s)", args[0], strings.Join(schemaNames(), ", "))
		}
		return printJSON(cmd, reflectSchema(target))
	},
}

func reflectSchema(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == dateType {
				return &jsonschema.Schema{Type: "string", Format: "date"}
			}
			return nil
		},
	}
	return r.Reflect(v)
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaTargets))
	for name := range schemaTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
