package cli

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"reelsmith/pkg/sceneplan"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema {plan|transcript}",
		Short:     "Print the JSON Schema of an input document",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"plan", "transcript"},
		RunE:      runSchema,
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	var schema *jsonschema.Schema
	switch args[0] {
	case "plan":
		schema = documentSchema(&sceneplan.Plan{})
	case "transcript":
		schema = documentSchema(sceneplan.Transcript{})
	default:
		return fmt.Errorf("unknown document %q", args[0])
	}
	return writeJSON(cmd.OutOrStdout(), schema)
}

func documentSchema(v any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapPosition,
	}
	return reflector.Reflect(v)
}

var positionType = reflect.TypeOf(sceneplan.Position{})

// mapPosition describes the three accepted spellings of an overlay
// position; the Go struct only exists after decoding.
func mapPosition(t reflect.Type) *jsonschema.Schema {
	if t != positionType {
		return nil
	}
	point := jsonschema.NewProperties()
	point.Set("x", &jsonschema.Schema{Type: "number"})
	point.Set("y", &jsonschema.Schema{Type: "number"})
	return &jsonschema.Schema{
		Description: "Named anchor, [x, y] pixel center or {\"x\", \"y\"} object",
		OneOf: []*jsonschema.Schema{
			{Type: "string", Enum: []any{"top", "upper_third", "center", "lower_third", "bottom"}},
			{Type: "array", Items: &jsonschema.Schema{Type: "number"}},
			{Type: "object", Properties: point, Required: []string{"x", "y"}},
			{Type: "null"},
		},
	}
}
