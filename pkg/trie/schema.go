package trie

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed trie.schema.json
var schemaSource []byte

const schemaURL = "https://github.com/aretw0/unicorn/trie.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Schema returns the JSON Schema describing the payload format.
func Schema() []byte {
	return bytes.Clone(schemaSource)
}

// Validate checks a JSON payload against the embedded schema. It reports every
// structural problem at once, whereas Parse stops at the first one.
func Validate(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return &domain.ConfigError{Reason: "failed to decode json payload", Err: err}
	}

	if err := schema.Validate(instance); err != nil {
		return &domain.ConfigError{Reason: "schema validation failed", Err: err}
	}
	return nil
}
