// Package util holds small internal helpers shared across packages: a
// minimal JSON-schema subset used to describe and validate tool parameters.
package util

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema creates a JSON schema from a Go struct using reflection.
// Field names come from json tags; fields tagged omitempty or typed as
// pointers are optional. The `description` struct tag is carried through.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := map[string]any{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		tagParts := strings.Split(jsonTag, ",")
		if tagParts[0] != "" {
			name = tagParts[0]
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop

		optional := field.Type.Kind() == reflect.Ptr
		for _, opt := range tagParts[1:] {
			if strings.TrimSpace(opt) == "omitempty" {
				optional = true
			}
		}
		if !optional {
			required = append(required, name)
		}
	}

	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateParameters validates parameters against a minimal JSON schema.
// Missing required fields and type mismatches fail; extra fields pass.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range requiredFields(schema) {
		if _, exists := params[name]; !exists {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := properties[name].(map[string]any)
		if !ok {
			continue // Allow extra fields
		}
		want, _ := prop["type"].(string)
		if !typeMatches(value, want) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", want, value),
			}
		}
	}

	return nil
}

// requiredFields tolerates both []string (schemas built in Go) and []any
// (schemas round-tripped through JSON).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		var out []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func typeMatches(value any, want string) bool {
	if value == nil {
		return true
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON numbers decode as float64
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
