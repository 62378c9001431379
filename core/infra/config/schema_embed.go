package config

import "embed"

const pathpackSchemaFile = "schema/pathpack.schema.json"

//go:embed schema/*.json
var configSchemaFS embed.FS
