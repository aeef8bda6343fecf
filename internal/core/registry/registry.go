// SPDX-License-Identifier: Apache-2.0

// Package registry holds the static bundle table. The registry is loaded
// once at program start, validated against a JSON schema, and injected into
// the orchestrator as an immutable value so tests can substitute fixtures.
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/auditor-sh/auditor/internal/core/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed bundles.yaml
var defaultBundles []byte

//go:embed bundles_schema.json
var bundlesSchema []byte

// Registry is an immutable lookup table of audit bundles.
type Registry struct {
	bundles []models.Bundle
	byCode  map[string]models.Bundle
	byName  map[string]models.Bundle
}

type registryDocument struct {
	Bundles []models.Bundle `yaml:"bundles" json:"bundles"`
}

// Load parses and validates a registry document.
func Load(data []byte) (*Registry, error) {
	var doc registryDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing bundle registry: %w", err)
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	reg := &Registry{
		bundles: doc.Bundles,
		byCode:  make(map[string]models.Bundle),
		byName:  make(map[string]models.Bundle),
	}

	for _, b := range doc.Bundles {
		if _, exists := reg.byCode[b.Code]; exists {
			return nil, fmt.Errorf("duplicate bundle code '%s' in registry", b.Code)
		}
		if _, exists := reg.byName[b.Name]; exists {
			return nil, fmt.Errorf("duplicate bundle name '%s' in registry", b.Name)
		}
		reg.byCode[b.Code] = b
		reg.byName[b.Name] = b
	}

	// Chain targets must resolve inside the same registry.
	for _, b := range doc.Bundles {
		if b.Chain != nil {
			if _, ok := reg.byName[b.Chain.Next]; !ok {
				return nil, fmt.Errorf("bundle '%s' chains to unknown bundle '%s'", b.Name, b.Chain.Next)
			}
		}
	}

	return reg, nil
}

// Default loads the registry embedded in the binary.
func Default() (*Registry, error) {
	return Load(defaultBundles)
}

// validateDocument checks the registry document against the embedded JSON
// schema before any structural indexing happens.
func validateDocument(doc registryDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("registry validation error: failed to serialize document: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(bundlesSchema)
	documentLoader := gojsonschema.NewBytesLoader(docBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("registry validation error: %w", err)
	}

	if !result.Valid() {
		errorMsg := "bundle registry validation failed:\n"
		for _, err := range result.Errors() {
			errorMsg += fmt.Sprintf("- %s\n", err)
		}
		return fmt.Errorf("%s", errorMsg)
	}

	return nil
}

// Bundles returns all registered bundles in declaration order.
func (r *Registry) Bundles() []models.Bundle {
	out := make([]models.Bundle, len(r.bundles))
	copy(out, r.bundles)
	return out
}

// Lookup finds a bundle by its short invocation code or full name.
func (r *Registry) Lookup(codeOrName string) (models.Bundle, error) {
	if b, ok := r.byCode[codeOrName]; ok {
		return b, nil
	}
	if b, ok := r.byName[codeOrName]; ok {
		return b, nil
	}
	return models.Bundle{}, fmt.Errorf("unknown bundle '%s' (use 'auditor bundles list' to see available bundles)", codeOrName)
}
