package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	configschema "github.com/cordum/pathpack/core/infra/schema"
)

func validateConfigSchema(name, schemaPath string, data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	schemaBytes, err := configSchemaFS.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("load %s schema: %w", name, err)
	}
	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse %s config: %w", name, err)
	}
	if payload == nil {
		return nil
	}
	schemaID := strings.ReplaceAll(name, " ", "-")
	if err := configschema.ValidateSchema(schemaID, schemaBytes, payload); err != nil {
		return fmt.Errorf("validate %s config: %w", name, err)
	}
	return nil
}
