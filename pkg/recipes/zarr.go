package recipes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/storage"
)

// prunedChunks is how many chunks a pruned recipe keeps.
const prunedChunks = 2

var inputClient = &http.Client{Timeout: 5 * time.Minute}

// ZarrArrayRecipe transforms an ordered sequence of source inputs into a
// single chunked zarr array at the target.
type ZarrArrayRecipe struct {
	// Inputs is the ordered list of source URLs.
	Inputs []string

	// InputsPerChunk is how many inputs are combined into one stored
	// chunk. Zero means one.
	InputsPerChunk int

	target        *storage.Target
	inputCache    *storage.CacheTarget
	metadataCache *storage.MetadataTarget
}

// Kind implements Recipe.
func (r *ZarrArrayRecipe) Kind() Kind { return KindZarrArray }

// SetTarget implements Recipe.
func (r *ZarrArrayRecipe) SetTarget(t *storage.Target) { r.target = t }

// SetInputCache implements Recipe.
func (r *ZarrArrayRecipe) SetInputCache(c *storage.CacheTarget) { r.inputCache = c }

// SetMetadataCache implements Recipe.
func (r *ZarrArrayRecipe) SetMetadataCache(m *storage.MetadataTarget) { r.metadataCache = m }

// Target returns the bound output handle.
func (r *ZarrArrayRecipe) Target() *storage.Target { return r.target }

// InputCache returns the bound input cache handle.
func (r *ZarrArrayRecipe) InputCache() *storage.CacheTarget { return r.inputCache }

// MetadataCache returns the bound metadata cache handle.
func (r *ZarrArrayRecipe) MetadataCache() *storage.MetadataTarget { return r.metadataCache }

func (r *ZarrArrayRecipe) inputsPerChunk() int {
	if r.InputsPerChunk <= 0 {
		return 1
	}
	return r.InputsPerChunk
}

// NumChunks returns how many chunks the recipe stores.
func (r *ZarrArrayRecipe) NumChunks() int {
	ipc := r.inputsPerChunk()
	return (len(r.Inputs) + ipc - 1) / ipc
}

// Pruned implements Recipe: the copy keeps only the first two chunks' worth
// of inputs and all bound storage slots.
func (r *ZarrArrayRecipe) Pruned() Recipe {
	keep := prunedChunks * r.inputsPerChunk()
	if keep > len(r.Inputs) {
		keep = len(r.Inputs)
	}
	pruned := *r
	pruned.Inputs = r.Inputs[:keep]
	return &pruned
}

// ToFlow implements Recipe. The task order is: cache every input, prepare
// the target, store every chunk, finalize the consolidated metadata.
func (r *ZarrArrayRecipe) ToFlow() *flows.Flow {
	flow := &flows.Flow{}

	for i, input := range r.Inputs {
		input := input
		flow.Tasks = append(flow.Tasks, &flows.Task{
			Name: fmt.Sprintf("cache-input-%d", i),
			Run:  func(ctx context.Context) error { return r.cacheInput(ctx, input) },
		})
	}

	flow.Tasks = append(flow.Tasks, &flows.Task{
		Name: "prepare-target",
		Run:  r.prepareTarget,
	})

	for chunk := 0; chunk < r.NumChunks(); chunk++ {
		chunk := chunk
		flow.Tasks = append(flow.Tasks, &flows.Task{
			Name: fmt.Sprintf("store-chunk-%d", chunk),
			Run:  func(ctx context.Context) error { return r.storeChunk(ctx, chunk) },
		})
	}

	flow.Tasks = append(flow.Tasks, &flows.Task{
		Name: "finalize-target",
		Run:  r.finalizeTarget,
	})

	return flow
}

// cacheInput fetches one source input into the input cache, skipping inputs
// that are already cached.
func (r *ZarrArrayRecipe) cacheInput(ctx context.Context, sourceURL string) error {
	diag := Diagnostics()

	cached, err := r.inputCache.HasInput(ctx, sourceURL)
	if err != nil {
		return fmt.Errorf("check cache for %s: %w", sourceURL, err)
	}
	if cached {
		diag.Debug().Str("input", sourceURL).Msg("Input already cached")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return err
	}
	resp, err := inputClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", sourceURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", sourceURL, err)
	}

	diag.Trace().Str("input", sourceURL).Int("bytes", len(data)).Msg("Caching input")
	return r.inputCache.StoreInput(ctx, sourceURL, data)
}

type zarrLayout struct {
	Inputs         int `json:"inputs"`
	InputsPerChunk int `json:"inputs_per_chunk"`
	Chunks         int `json:"chunks"`
}

// prepareTarget records the array layout in the metadata cache before any
// chunk is written.
func (r *ZarrArrayRecipe) prepareTarget(ctx context.Context) error {
	layout := zarrLayout{
		Inputs:         len(r.Inputs),
		InputsPerChunk: r.inputsPerChunk(),
		Chunks:         r.NumChunks(),
	}
	diag := Diagnostics()
	diag.Debug().Int("chunks", layout.Chunks).Msg("Preparing target")
	return r.metadataCache.WriteJSON(ctx, "layout.json", layout)
}

// storeChunk combines the cached inputs of one chunk and writes it to the
// target.
func (r *ZarrArrayRecipe) storeChunk(ctx context.Context, chunk int) error {
	ipc := r.inputsPerChunk()
	start := chunk * ipc
	end := start + ipc
	if end > len(r.Inputs) {
		end = len(r.Inputs)
	}

	var combined []byte
	for _, input := range r.Inputs[start:end] {
		data, err := r.inputCache.ReadInput(ctx, input)
		if err != nil {
			return fmt.Errorf("read cached input %s: %w", input, err)
		}
		combined = append(combined, data...)
	}

	diag := Diagnostics()
	diag.Trace().Int("chunk", chunk).Int("bytes", len(combined)).Msg("Storing chunk")
	return r.target.Write(ctx, fmt.Sprintf("chunk.%d", chunk), combined)
}

// finalizeTarget consolidates the layout metadata into the target itself so
// readers need a single round trip.
func (r *ZarrArrayRecipe) finalizeTarget(ctx context.Context) error {
	var layout zarrLayout
	if err := r.metadataCache.ReadJSON(ctx, "layout.json", &layout); err != nil {
		return fmt.Errorf("read layout: %w", err)
	}
	data := []byte(fmt.Sprintf(`{"inputs":%d,"inputs_per_chunk":%d,"chunks":%d}`,
		layout.Inputs, layout.InputsPerChunk, layout.Chunks))
	return r.target.Write(ctx, ".zmetadata", data)
}
