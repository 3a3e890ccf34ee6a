package singer

// Schema is a JSON-schema fragment as used in SCHEMA messages and catalog
// entries.
type Schema map[string]any

// Property pairs a field name with its schema. Optional properties are
// emitted as nullable: "null" is appended to their type list.
type Property struct {
	Name     string
	Schema   Schema
	Required bool
}

// Prop declares an optional property.
func Prop(name string, schema Schema) Property {
	return Property{Name: name, Schema: schema}
}

// RequiredProp declares a required, non-nullable property.
func RequiredProp(name string, schema Schema) Property {
	return Property{Name: name, Schema: schema, Required: true}
}

// NewSchema builds a top-level object schema from the given properties.
func NewSchema(props ...Property) Schema {
	return Schema{
		"type":       "object",
		"properties": propertiesMap(props),
	}
}

// String is a JSON string schema.
func String() Schema {
	return Schema{"type": []string{"string"}}
}

// DateTime is a JSON string schema with date-time format.
func DateTime() Schema {
	return Schema{"type": []string{"string"}, "format": "date-time"}
}

// Integer is a JSON integer schema.
func Integer() Schema {
	return Schema{"type": []string{"integer"}}
}

// Number is a JSON number schema.
func Number() Schema {
	return Schema{"type": []string{"number"}}
}

// Boolean is a JSON boolean schema.
func Boolean() Schema {
	return Schema{"type": []string{"boolean"}}
}

// Object is a nested object schema.
func Object(props ...Property) Schema {
	return Schema{
		"type":       []string{"object"},
		"properties": propertiesMap(props),
	}
}

// Array is an array schema with the given item schema.
func Array(items Schema) Schema {
	return Schema{"type": []string{"array"}, "items": items}
}

func propertiesMap(props []Property) map[string]any {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		schema := p.Schema
		if !p.Required {
			schema = nullable(schema)
		}
		properties[p.Name] = schema
	}
	return properties
}

func nullable(s Schema) Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	switch t := out["type"].(type) {
	case []string:
		for _, name := range t {
			if name == "null" {
				return out
			}
		}
		types := make([]string, 0, len(t)+1)
		types = append(types, t...)
		out["type"] = append(types, "null")
	case string:
		out["type"] = []string{t, "null"}
	}
	return out
}
