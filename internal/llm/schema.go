package llm

import (
	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// Schema is a named JSON schema for structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// SchemaFor reflects a strict JSON schema from T. Every property is
// required and additional properties are rejected, as strict structured
// output modes demand.
func SchemaFor[T any](name, description string) *Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	var v T
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(err)
	}
	var def map[string]any
	if err := json.Unmarshal(raw, &def); err != nil {
		panic(err)
	}
	delete(def, "$schema")
	delete(def, "$id")
	makeStrict(def)

	return &Schema{Name: name, Description: description, Definition: def}
}

func makeStrict(schema map[string]any) {
	props, _ := schema["properties"].(map[string]any)
	if t, _ := schema["type"].(string); t == "object" {
		schema["additionalProperties"] = false
		if len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			schema["required"] = required
		}
	}
	for _, p := range props {
		if pm, ok := p.(map[string]any); ok {
			makeStrict(pm)
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		makeStrict(items)
	}
}
