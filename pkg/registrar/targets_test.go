package registrar

import (
	"testing"

	"github.com/openbakery/openbakery/pkg/meta"
)

func TestResolveTargets_DerivedPaths(t *testing.T) {
	bakery := testFargateBakery()

	targets, err := ResolveTargets(&bakery, testManifest().Bakery,
		"noaa/oisst-feedstock", "oisst-avhrr", "zarr", testSecrets())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := targets.Target.URL(); got != "s3://openbakery-bucket/noaa/oisst-feedstock/oisst-avhrr.zarr" {
		t.Errorf("Unexpected target URL: %s", got)
	}
	if got := targets.InputCache.URL(); got != "s3://openbakery-bucket/noaa/oisst-feedstock/oisst-avhrr/cache" {
		t.Errorf("Unexpected input cache URL: %s", got)
	}
	if got := targets.MetadataCache.URL(); got != "s3://openbakery-bucket/noaa/oisst-feedstock/oisst-avhrr/cache/metadata" {
		t.Errorf("Unexpected metadata cache URL: %s", got)
	}

	// All three handles share one filesystem.
	if targets.InputCache.FS != targets.Target.FS || targets.MetadataCache.FS != targets.Target.FS {
		t.Error("Expected all targets to share the same filesystem")
	}
}

func TestResolveTargets_Deterministic(t *testing.T) {
	bakery := testFargateBakery()

	first, err := ResolveTargets(&bakery, testManifest().Bakery,
		"org/repo", "recipe", "zarr", testSecrets())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := ResolveTargets(&bakery, testManifest().Bakery,
		"org/repo", "recipe", "zarr", testSecrets())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first.Target.URL() != second.Target.URL() {
		t.Errorf("Expected identical URLs, got %s and %s", first.Target.URL(), second.Target.URL())
	}
	if first.InputCache.Path != second.InputCache.Path {
		t.Errorf("Expected identical cache paths, got %s and %s", first.InputCache.Path, second.InputCache.Path)
	}
}

func TestResolveTargets_ConnectionStringTarget(t *testing.T) {
	bakery := testFargateBakery()
	bakery.Targets["openbakery-bucket"] = meta.Target{
		Private: meta.StorageSpec{
			Protocol:       meta.ProtocolABFS,
			StorageOptions: &meta.StorageOptions{Secret: "FLOW_CONN"},
		},
	}

	targets, err := ResolveTargets(&bakery, testManifest().Bakery,
		"org/repo", "recipe", "zarr", testSecrets())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := targets.Target.FS.Scheme(); got != "abfs" {
		t.Errorf("Expected abfs filesystem, got scheme %s", got)
	}
}

func TestResolveTargets_UnknownTargetName(t *testing.T) {
	bakery := testFargateBakery()
	recipeBakery := testManifest().Bakery
	recipeBakery.Target = "no-such-target"

	_, err := ResolveTargets(&bakery, recipeBakery, "org/repo", "recipe", "zarr", testSecrets())
	if !IsKind(err, KindUnsupportedTarget) {
		t.Fatalf("Expected unsupported target error, got: %v", err)
	}
}

func TestResolveTargets_UnknownProtocol(t *testing.T) {
	bakery := testFargateBakery()
	bakery.Targets["openbakery-bucket"] = meta.Target{
		Private: meta.StorageSpec{Protocol: "gcs"},
	}

	_, err := ResolveTargets(&bakery, testManifest().Bakery, "org/repo", "recipe", "zarr", testSecrets())
	if !IsKind(err, KindUnsupportedTarget) {
		t.Fatalf("Expected unsupported target error, got: %v", err)
	}
}

func TestResolveTargets_MissingSecret(t *testing.T) {
	bakery := testFargateBakery()
	secrets := testSecrets()
	delete(secrets, "TARGET_SECRET")

	_, err := ResolveTargets(&bakery, testManifest().Bakery, "org/repo", "recipe", "zarr", secrets)
	if !IsKind(err, KindMissingSecret) {
		t.Fatalf("Expected missing secret error, got: %v", err)
	}
}
