// Package schema validates decoded documents against JSON Schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var errEmptySchema = errors.New("schema is empty")

// Schema is a compiled JSON Schema.
type Schema struct {
	id       string
	compiled *jsonschema.Schema
}

// Compile compiles a JSON Schema document registered under id.
func Compile(id string, schema []byte) (*Schema, error) {
	if len(schema) == 0 {
		return nil, errEmptySchema
	}
	resourceID := schemaID(id)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{id: resourceID, compiled: compiled}, nil
}

// Validate checks value, which may be raw JSON or a decoded YAML/JSON tree.
func (s *Schema) Validate(value any) error {
	payload, err := normalizeValue(value)
	if err != nil {
		return fmt.Errorf("normalize payload: %w", err)
	}
	if err := s.compiled.Validate(payload); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateSchema compiles schema and validates value in one step.
func ValidateSchema(id string, schema []byte, value any) error {
	compiled, err := Compile(id, schema)
	if err != nil {
		return err
	}
	return compiled.Validate(value)
}

// normalizeValue turns value into the plain JSON tree the validator expects.
// Decoded YAML carries Go integer types, so structured values are re-encoded
// through JSON.
func normalizeValue(value any) (any, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, float64, json.Number:
		return v, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		raw = data
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

func schemaID(id string) string {
	if id == "" {
		id = "schema"
	}
	return "inmemory://" + id
}
