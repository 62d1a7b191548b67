package meta

import (
	"strings"
	"testing"
)

const validManifestYAML = `
title: "NOAA OISST v2.1"
description: "Daily sea surface temperature"
notebook_version: "2021.05.1"
recipes_version: "0.4.0"
recipes:
  - id: oisst-avhrr
    object: "recipe:oisst"
bakery:
  id: "devseed.bakery.aws.us-west-2"
  target: openbakery-bucket
  resources:
    cpu: 2048
    memory: 8192
provenance:
  providers:
    - name: "NOAA NCEI"
      description: "National Centers for Environmental Information"
      roles:
        - producer
        - licensor
      url: "https://www.ncdc.noaa.gov/oisst"
  license: "open"
maintainers:
  - name: "Jo Doe"
    github: jodoe
`

const validBakeriesYAML = `
devseed.bakery.aws.us-west-2:
  cluster:
    type: fargate
    worker_image: "openbakery/worker:2021.05.1"
    cluster_options:
      vpc: vpc-0123
      cluster_arn: "arn:aws:ecs:us-west-2:1:cluster/bakery"
      task_role_arn: "arn:aws:iam::1:role/task"
      execution_role_arn: "arn:aws:iam::1:role/exec"
      security_groups:
        - sg-0123
    flow_storage: openbakery-flows
    flow_storage_protocol: s3
    flow_storage_options:
      key: TARGET_KEY
      secret: TARGET_SECRET
    max_workers: 50
    notebook_version: "2021.05.1"
    recipes_version: "0.4.0"
    engine_version: "0.14.19"
  targets:
    openbakery-bucket:
      region: us-west-2
      private:
        protocol: s3
        storage_options:
          key: TARGET_KEY
          secret: TARGET_SECRET
`

func TestParseManifest_Valid(t *testing.T) {
	manifest, err := NewParser().ParseManifest([]byte(validManifestYAML))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if manifest.Title != "NOAA OISST v2.1" {
		t.Errorf("Unexpected title: %s", manifest.Title)
	}
	if manifest.NotebookVersion != "2021.05.1" || manifest.RecipesVersion != "0.4.0" {
		t.Errorf("Unexpected versions: %s / %s", manifest.NotebookVersion, manifest.RecipesVersion)
	}
	if len(manifest.Recipes) != 1 || manifest.Recipes[0].ID != "oisst-avhrr" {
		t.Errorf("Unexpected recipes: %+v", manifest.Recipes)
	}
	if manifest.Bakery.ID != "devseed.bakery.aws.us-west-2" {
		t.Errorf("Unexpected bakery id: %s", manifest.Bakery.ID)
	}
	if manifest.Bakery.Resources == nil || manifest.Bakery.Resources.CPU != 2048 {
		t.Errorf("Unexpected resources: %+v", manifest.Bakery.Resources)
	}
	if manifest.Provenance == nil || len(manifest.Provenance.Providers) != 1 {
		t.Errorf("Unexpected provenance: %+v", manifest.Provenance)
	}
	if len(manifest.Maintainers) != 1 || manifest.Maintainers[0].GitHub != "jodoe" {
		t.Errorf("Unexpected maintainers: %+v", manifest.Maintainers)
	}
}

func TestParseManifest_FamilyEntry(t *testing.T) {
	yaml := strings.Replace(validManifestYAML,
		"  - id: oisst-avhrr\n    object: \"recipe:oisst\"",
		"  - family_object: \"family:cmip6\"", 1)

	manifest, err := NewParser().ParseManifest([]byte(yaml))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !manifest.Recipes[0].IsFamily() {
		t.Error("Expected a family entry")
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "not yaml",
			yaml: "{{{",
		},
		{
			name: "missing title",
			yaml: strings.Replace(validManifestYAML, "title: \"NOAA OISST v2.1\"\n", "", 1),
		},
		{
			name: "missing notebook version",
			yaml: strings.Replace(validManifestYAML, "notebook_version: \"2021.05.1\"\n", "", 1),
		},
		{
			name: "entry with both object and family",
			yaml: strings.Replace(validManifestYAML,
				"    object: \"recipe:oisst\"",
				"    object: \"recipe:oisst\"\n    family_object: \"family:x\"", 1),
		},
		{
			name: "entry with neither object nor family",
			yaml: strings.Replace(validManifestYAML,
				"  - id: oisst-avhrr\n    object: \"recipe:oisst\"",
				"  - id: oisst-avhrr", 1),
		},
		{
			name: "bakery id with illegal characters",
			yaml: strings.Replace(validManifestYAML,
				"id: \"devseed.bakery.aws.us-west-2\"",
				"id: \"devseed bakery!\"", 1),
		},
		{
			name: "non-positive cpu hint",
			yaml: strings.Replace(validManifestYAML, "cpu: 2048", "cpu: 0", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParser().ParseManifest([]byte(tt.yaml)); err == nil {
				t.Error("Expected a parse error")
			}
		})
	}
}

func TestParseBakeries_Valid(t *testing.T) {
	table, err := NewParser().ParseBakeries([]byte(validBakeriesYAML))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	bakery, ok := table["devseed.bakery.aws.us-west-2"]
	if !ok {
		t.Fatal("Expected the bakery in the table")
	}
	if bakery.Cluster.Type != ClusterTypeFargate {
		t.Errorf("Unexpected cluster type: %s", bakery.Cluster.Type)
	}
	if bakery.Cluster.MaxWorkers != 50 {
		t.Errorf("Unexpected max workers: %d", bakery.Cluster.MaxWorkers)
	}
	target, ok := bakery.Targets["openbakery-bucket"]
	if !ok {
		t.Fatal("Expected the target in the bakery")
	}
	if target.Private.Protocol != ProtocolS3 {
		t.Errorf("Unexpected target protocol: %s", target.Private.Protocol)
	}
	if target.Private.StorageOptions.Key != "TARGET_KEY" {
		t.Errorf("Unexpected storage options: %+v", target.Private.StorageOptions)
	}
}

func TestParseBakeries_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing worker image",
			yaml: strings.Replace(validBakeriesYAML, "    worker_image: \"openbakery/worker:2021.05.1\"\n", "", 1),
		},
		{
			name: "non-positive max workers",
			yaml: strings.Replace(validBakeriesYAML, "max_workers: 50", "max_workers: 0", 1),
		},
		{
			name: "missing engine version",
			yaml: strings.Replace(validBakeriesYAML, "    engine_version: \"0.14.19\"\n", "", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParser().ParseBakeries([]byte(tt.yaml)); err == nil {
				t.Error("Expected a parse error")
			}
		})
	}
}

func TestSchemaRegistry_UnknownSchema(t *testing.T) {
	registry := NewSchemaRegistry()
	if err := registry.Validate("nope", map[string]any{}); err == nil {
		t.Error("Expected an error for an unknown schema")
	}
}
