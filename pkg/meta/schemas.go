package meta

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages the CUE schemas manifest and bakery documents are
// checked against before struct decoding.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a registry with the built-in schemas compiled.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
	sr.mustRegister("manifest", builtinManifestSchema)
	sr.mustRegister("bakeries", builtinBakeriesSchema)
	return sr
}

// RegisterSchema compiles and registers a CUE schema under name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	sr.schemas[name] = val
	return nil
}

func (sr *SchemaRegistry) mustRegister(name, schema string) {
	if err := sr.RegisterSchema(name, schema); err != nil {
		panic(err)
	}
}

// Validate unifies data with the named schema and reports any conflict.
func (sr *SchemaRegistry) Validate(name string, data any) error {
	sr.mu.RLock()
	schema, ok := sr.schemas[name]
	sr.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schema %s not found", name)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// Built-in schema definitions

const builtinManifestSchema = `
title:        string
description?: string

notebook_version: string
recipes_version:  string

recipes: [...{
	id?:            string
	object?:        string
	family_object?: string
}]

bakery: {
	id:     string & =~"^[a-zA-Z0-9_.-]+$"
	target: string
	resources?: {
		cpu:    int & >0
		memory: int & >0
	}
}

provenance?: {
	providers: [...{
		name:         string
		description?: string
		roles?: [...("producer" | "licensor")]
		url?: string
	}]
	license?: string
}

maintainers?: [...{
	name:    string
	orcid?:  string
	github?: string
}]
`

const builtinBakeriesSchema = `
[string]: {
	cluster: {
		type:         string
		worker_image: string
		cluster_options?: {
			vpc?:                string
			cluster_arn?:        string
			task_role_arn?:      string
			execution_role_arn?: string
			security_groups?: [...string]
		}
		flow_storage:          string
		flow_storage_protocol: string
		flow_storage_options?: {
			key?:      string
			secret?:   string
			endpoint?: string
		}
		max_workers:      int & >0
		notebook_version: string
		recipes_version:  string
		engine_version:   string
	}
	targets: [string]: {
		region?: string
		private: {
			protocol: string
			storage_options?: {
				key?:      string
				secret?:   string
				endpoint?: string
			}
		}
	}
}
`
