package presets

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of a preset file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&Preset{})
	schema.Title = "ttschat preset"
	schema.Description = "Role names, system prompt, prompt template and stop sequences of a conversation"
	schema.Required = []string{"name"}

	return json.MarshalIndent(schema, "", "  ")
}
