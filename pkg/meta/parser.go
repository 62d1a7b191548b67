package meta

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parser decodes and validates manifest and bakery documents. Decoded
// structs are validated twice: shape against the CUE schemas, then field
// constraints with the struct validator.
type Parser struct {
	schemas   *SchemaRegistry
	validator *validator.Validate
}

// NewParser creates a parser with the built-in schemas.
func NewParser() *Parser {
	return &Parser{
		schemas:   NewSchemaRegistry(),
		validator: validator.New(),
	}
}

// ParseManifest decodes a recipe manifest document.
func (p *Parser) ParseManifest(data []byte) (*Manifest, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := p.schemas.Validate("manifest", raw); err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := p.validator.Struct(manifest); err != nil {
		return nil, fmt.Errorf("manifest validation: %w", err)
	}
	for i, entry := range manifest.Recipes {
		if err := validateRecipeEntry(entry); err != nil {
			return nil, fmt.Errorf("manifest recipes[%d]: %w", i, err)
		}
	}
	return &manifest, nil
}

// ParseBakeries decodes a bakery table document.
func (p *Parser) ParseBakeries(data []byte) (BakeryTable, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bakeries: %w", err)
	}
	if err := p.schemas.Validate("bakeries", raw); err != nil {
		return nil, fmt.Errorf("bakeries schema: %w", err)
	}

	var table BakeryTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode bakeries: %w", err)
	}
	for id, bakery := range table {
		if err := p.validator.Struct(bakery); err != nil {
			return nil, fmt.Errorf("bakery %s validation: %w", id, err)
		}
	}
	return table, nil
}

// ParseManifestFile reads and decodes a manifest from disk.
func (p *Parser) ParseManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseManifest(data)
}

// ParseBakeriesFile reads and decodes a bakery table from disk.
func (p *Parser) ParseBakeriesFile(path string) (BakeryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseBakeries(data)
}

// validateRecipeEntry enforces the either/or shape of a recipe entry: a
// single object needs an id and an object reference; a family needs only
// the family reference.
func validateRecipeEntry(entry RecipeEntry) error {
	if entry.IsFamily() {
		if entry.ID != "" || entry.Object != "" {
			return fmt.Errorf("family entry %q must not set id or object", entry.FamilyObject)
		}
		return nil
	}
	if entry.ID == "" || entry.Object == "" {
		return fmt.Errorf("entry needs either id+object or family_object")
	}
	return nil
}
