package registrar

import (
	"context"
	"fmt"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/meta"
	"github.com/openbakery/openbakery/pkg/recipes"
	"github.com/openbakery/openbakery/pkg/storage"
)

// Shared fixtures for the registrar tests: a manifest, a fargate and a
// kubernetes bakery, and the secrets both reference.

func testSecrets() Secrets {
	return Secrets{
		"TARGET_KEY":    "AKIATEST",
		"TARGET_SECRET": "s3cr3t",
		"FLOW_CONN":     "AccountName=flows;AccountKey=a2V5bWF0ZXJpYWw=",
		BotTokenSecret:  "ghp_bot",
	}
}

func testManifest() *meta.Manifest {
	return &meta.Manifest{
		Title:           "NOAA OISST",
		NotebookVersion: "2021.05.1",
		RecipesVersion:  "0.4.0",
		Recipes: []meta.RecipeEntry{
			{ID: "oisst-avhrr", Object: "recipe:oisst"},
		},
		Bakery: meta.RecipeBakery{
			ID:     "devseed.bakery.aws.us-west-2",
			Target: "openbakery-bucket",
		},
	}
}

func testFargateBakery() meta.Bakery {
	return meta.Bakery{
		Cluster: meta.Cluster{
			Type:        meta.ClusterTypeFargate,
			WorkerImage: "openbakery/worker:2021.05.1",
			ClusterOptions: meta.ClusterOptions{
				VPC:              "vpc-0123",
				ClusterARN:       "arn:aws:ecs:us-west-2:1:cluster/bakery",
				TaskRoleARN:      "arn:aws:iam::1:role/task",
				ExecutionRoleARN: "arn:aws:iam::1:role/exec",
				SecurityGroups:   []string{"sg-0123"},
			},
			FlowStorage:         "openbakery-flows",
			FlowStorageProtocol: meta.ProtocolS3,
			FlowStorageOptions:  &meta.StorageOptions{Key: "TARGET_KEY", Secret: "TARGET_SECRET"},
			MaxWorkers:          50,
			NotebookVersion:     "2021.05.1",
			RecipesVersion:      "0.4.0",
			EngineVersion:       "0.14.19",
		},
		Targets: map[string]meta.Target{
			"openbakery-bucket": {
				Region: "us-west-2",
				Private: meta.StorageSpec{
					Protocol:       meta.ProtocolS3,
					StorageOptions: &meta.StorageOptions{Key: "TARGET_KEY", Secret: "TARGET_SECRET"},
				},
			},
		},
	}
}

func testKubernetesBakery() meta.Bakery {
	bakery := testFargateBakery()
	bakery.Cluster.Type = meta.ClusterTypeKubernetes
	bakery.Cluster.FlowStorageProtocol = meta.ProtocolABFS
	bakery.Cluster.FlowStorageOptions = &meta.StorageOptions{Secret: "FLOW_CONN"}
	return bakery
}

func testRuntimeVersions() Versions {
	return Versions{Notebook: "2021.05.1", Recipes: "0.4.0", Engine: "0.14.19"}
}

// testFixture bundles the pieces the version gate compares, so table tests
// can mutate one copy per case.
type testFixture struct {
	manifest *meta.Manifest
	bakery   meta.Bakery
	runtime  Versions
}

// fakeRecipe is a minimal recipe whose flow carries a fixed number of
// no-op tasks.
type fakeRecipe struct {
	kind      recipes.Kind
	taskCount int

	target        *storage.Target
	inputCache    *storage.CacheTarget
	metadataCache *storage.MetadataTarget
	pruned        bool
}

func (r *fakeRecipe) Kind() recipes.Kind                         { return r.kind }
func (r *fakeRecipe) SetTarget(t *storage.Target)                { r.target = t }
func (r *fakeRecipe) SetInputCache(c *storage.CacheTarget)       { r.inputCache = c }
func (r *fakeRecipe) SetMetadataCache(m *storage.MetadataTarget) { r.metadataCache = m }

func (r *fakeRecipe) Pruned() recipes.Recipe {
	copied := *r
	copied.pruned = true
	if copied.taskCount > 1 {
		copied.taskCount = 1
	}
	return &copied
}

func (r *fakeRecipe) ToFlow() *flows.Flow {
	flow := &flows.Flow{}
	for i := 0; i < r.taskCount; i++ {
		flow.Tasks = append(flow.Tasks, &flows.Task{
			Name: fmt.Sprintf("task-%d", i),
			Run:  func(ctx context.Context) error { return nil },
		})
	}
	return flow
}

func newFakeRecipe(tasks int) *fakeRecipe {
	return &fakeRecipe{kind: recipes.KindZarrArray, taskCount: tasks}
}
