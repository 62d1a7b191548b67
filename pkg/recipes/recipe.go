// Package recipes defines the computation objects the registrar bakes into
// flows: declarative data-transformation definitions with pluggable storage
// slots, optional pruning for cheap validation runs, and a conversion to the
// engine's flow form.
package recipes

import (
	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/storage"
)

// Kind is the exhaustive tag over supported recipe variants.
type Kind string

const (
	// KindZarrArray is the array/zarr recipe variant, currently the only
	// one the registrar can bake.
	KindZarrArray Kind = "zarr_array"
)

// Recipe is a computation object: the unit submitted for execution.
//
// The target, input cache and metadata cache slots are mutable and bound by
// the registrar from the bakery's resolved targets before conversion.
type Recipe interface {
	// Kind returns the recipe variant tag.
	Kind() Kind

	// SetTarget binds the output storage handle.
	SetTarget(t *storage.Target)

	// SetInputCache binds the input cache handle.
	SetInputCache(c *storage.CacheTarget)

	// SetMetadataCache binds the metadata cache handle.
	SetMetadataCache(m *storage.MetadataTarget)

	// Pruned returns a scope-reduced copy of the recipe for cheap
	// validation runs. All bound storage slots are preserved.
	Pruned() Recipe

	// ToFlow converts the recipe to its executable flow form with an
	// ordered sequence of tasks.
	ToFlow() *flows.Flow
}
