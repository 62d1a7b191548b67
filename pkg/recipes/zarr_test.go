package recipes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/openbakery/openbakery/pkg/storage"
)

// memFS is an in-memory Filesystem for exercising recipe tasks.
type memFS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemFS() *memFS {
	return &memFS{objects: make(map[string][]byte)}
}

func (f *memFS) Scheme() string { return "mem" }

func (f *memFS) URL(path string) string { return "mem://" + strings.TrimPrefix(path, "/") }

func (f *memFS) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[path]
	return ok, nil
}

func (f *memFS) Get(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("no object at %s", path)
	}
	return data, nil
}

func (f *memFS) Put(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return nil
}

// boundRecipe binds a zarr recipe to fresh in-memory targets.
func boundRecipe(inputs []string, inputsPerChunk int) (*ZarrArrayRecipe, *memFS) {
	fs := newMemFS()
	recipe := &ZarrArrayRecipe{Inputs: inputs, InputsPerChunk: inputsPerChunk}
	recipe.SetTarget(storage.NewTarget(fs, "bucket/repo/recipe.zarr"))
	recipe.SetInputCache(storage.NewCacheTarget(fs, "bucket/repo/recipe/cache"))
	recipe.SetMetadataCache(storage.NewMetadataTarget(fs, "bucket/repo/recipe/cache/metadata"))
	return recipe, fs
}

func TestZarrArrayRecipe_NumChunks(t *testing.T) {
	tests := []struct {
		inputs int
		ipc    int
		want   int
	}{
		{inputs: 6, ipc: 2, want: 3},
		{inputs: 7, ipc: 2, want: 4},
		{inputs: 3, ipc: 0, want: 3},
		{inputs: 0, ipc: 2, want: 0},
		{inputs: 5, ipc: 10, want: 1},
	}
	for _, tt := range tests {
		inputs := make([]string, tt.inputs)
		r := &ZarrArrayRecipe{Inputs: inputs, InputsPerChunk: tt.ipc}
		if got := r.NumChunks(); got != tt.want {
			t.Errorf("NumChunks with %d inputs, %d per chunk: expected %d, got %d",
				tt.inputs, tt.ipc, tt.want, got)
		}
	}
}

func TestZarrArrayRecipe_PrunedKeepsTwoChunks(t *testing.T) {
	inputs := []string{"a", "b", "c", "d", "e", "f", "g"}
	recipe, _ := boundRecipe(inputs, 2)

	pruned, ok := recipe.Pruned().(*ZarrArrayRecipe)
	if !ok {
		t.Fatal("Expected a zarr recipe back from Pruned")
	}

	if len(pruned.Inputs) != 4 {
		t.Errorf("Expected 4 inputs after pruning, got %d", len(pruned.Inputs))
	}
	if pruned.NumChunks() != 2 {
		t.Errorf("Expected 2 chunks after pruning, got %d", pruned.NumChunks())
	}
	// The original keeps its full input list; the copy keeps the slots.
	if len(recipe.Inputs) != 7 {
		t.Errorf("Expected the original to keep 7 inputs, got %d", len(recipe.Inputs))
	}
	if pruned.Target() == nil || pruned.InputCache() == nil || pruned.MetadataCache() == nil {
		t.Error("Expected the pruned copy to keep its bound storage slots")
	}
}

func TestZarrArrayRecipe_PrunedShorterThanTwoChunks(t *testing.T) {
	recipe, _ := boundRecipe([]string{"a", "b"}, 2)
	pruned := recipe.Pruned().(*ZarrArrayRecipe)
	if len(pruned.Inputs) != 2 {
		t.Errorf("Expected all 2 inputs kept, got %d", len(pruned.Inputs))
	}
}

func TestZarrArrayRecipe_ToFlowTaskOrder(t *testing.T) {
	recipe, _ := boundRecipe([]string{"a", "b", "c"}, 2)
	flow := recipe.ToFlow()

	want := []string{"cache-input-0", "cache-input-1", "cache-input-2",
		"prepare-target", "store-chunk-0", "store-chunk-1", "finalize-target"}
	if len(flow.Tasks) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(flow.Tasks))
	}
	for i, name := range want {
		if flow.Tasks[i].Name != name {
			t.Errorf("Task %d: expected %s, got %s", i, name, flow.Tasks[i].Name)
		}
	}
}

func TestZarrArrayRecipe_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "payload-of%s", r.URL.Path)
	}))
	defer server.Close()

	inputs := []string{server.URL + "/one", server.URL + "/two", server.URL + "/three"}
	recipe, fs := boundRecipe(inputs, 2)

	ctx := context.Background()
	for _, task := range recipe.ToFlow().Tasks {
		if err := task.Run(ctx); err != nil {
			t.Fatalf("Task %s failed: %v", task.Name, err)
		}
	}

	// Both chunks landed under the target root.
	chunk0, err := recipe.Target().Read(ctx, "chunk.0")
	if err != nil {
		t.Fatalf("Expected chunk 0 to exist: %v", err)
	}
	if got := string(chunk0); got != "payload-of/onepayload-of/two" {
		t.Errorf("Unexpected chunk 0 content: %s", got)
	}
	chunk1, err := recipe.Target().Read(ctx, "chunk.1")
	if err != nil {
		t.Fatalf("Expected chunk 1 to exist: %v", err)
	}
	if got := string(chunk1); got != "payload-of/three" {
		t.Errorf("Unexpected chunk 1 content: %s", got)
	}

	// Consolidated metadata is written into the target itself.
	meta, err := recipe.Target().Read(ctx, ".zmetadata")
	if err != nil {
		t.Fatalf("Expected consolidated metadata: %v", err)
	}
	if got := string(meta); got != `{"inputs":3,"inputs_per_chunk":2,"chunks":2}` {
		t.Errorf("Unexpected consolidated metadata: %s", got)
	}

	// Every input is cached exactly once under the cache root.
	cached := 0
	for path := range fs.objects {
		if strings.HasPrefix(path, "bucket/repo/recipe/cache/") &&
			!strings.HasPrefix(path, "bucket/repo/recipe/cache/metadata/") {
			cached++
		}
	}
	if cached != 3 {
		t.Errorf("Expected 3 cached inputs, got %d", cached)
	}
}

func TestZarrArrayRecipe_CacheInputSkipsCached(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "data")
	}))
	defer server.Close()

	recipe, _ := boundRecipe([]string{server.URL + "/input"}, 1)

	ctx := context.Background()
	if err := recipe.cacheInput(ctx, recipe.Inputs[0]); err != nil {
		t.Fatalf("First cache run failed: %v", err)
	}
	if err := recipe.cacheInput(ctx, recipe.Inputs[0]); err != nil {
		t.Fatalf("Second cache run failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("Expected a single upstream fetch, got %d", hits)
	}
}

func TestZarrArrayRecipe_Kind(t *testing.T) {
	recipe := &ZarrArrayRecipe{}
	if recipe.Kind() != KindZarrArray {
		t.Errorf("Expected kind %s, got %s", KindZarrArray, recipe.Kind())
	}
}
