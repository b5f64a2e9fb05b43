package classify

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into a JSON schema accepted by strict structured outputs:
// every object closed and every property required.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	raw, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic(err)
	}
	closeObjects(schema)
	return schema
}

func closeObjects(schema map[string]any) {
	props, hasProps := schema["properties"].(map[string]any)
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if hasProps && len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			schema["required"] = required
		}
	}
	for _, prop := range props {
		if m, ok := prop.(map[string]any); ok {
			closeObjects(m)
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		closeObjects(items)
	}
}
