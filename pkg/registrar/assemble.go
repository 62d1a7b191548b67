package registrar

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/meta"
	"github.com/openbakery/openbakery/pkg/recipes"
)

// The uniform retry policy attached to every task of every assembled flow.
// It governs execution-time transient failures in the engine, not failures
// of the registrar itself.
const (
	taskMaxRetries = 3
	taskRetryDelay = 3 * time.Minute
)

// AssembleFlow binds a recipe to its resolved targets and converts it to a
// fully configured flow: storage, run config, executor, a uniform retry
// policy on every task, and forced diagnostic logging around every task
// run. Pure transformation, no external I/O.
func AssembleFlow(bakery *meta.Bakery, manifest *meta.Manifest, recipeID string, recipe recipes.Recipe, targets *Targets, secrets Secrets, prune bool) (*flows.Flow, error) {
	recipe.SetTarget(targets.Target)
	recipe.SetInputCache(targets.InputCache)
	recipe.SetMetadataCache(targets.MetadataCache)

	executor, err := BuildExecutor(&bakery.Cluster, manifest.Bakery, recipeID, secrets)
	if err != nil {
		return nil, err
	}

	// Pruning happens after slot binding so the reduced copy keeps all
	// resolved storage handles.
	if prune {
		recipe = recipe.Pruned()
	}

	flow := recipe.ToFlow()

	flow.Storage, err = ResolveFlowStorage(&bakery.Cluster, secrets)
	if err != nil {
		return nil, err
	}
	flow.RunConfig, err = BuildRunConfig(&bakery.Cluster, manifest.Bakery, recipeID, secrets)
	if err != nil {
		return nil, err
	}
	flow.Executor = executor

	for _, task := range flow.Tasks {
		task.MaxRetries = taskMaxRetries
		task.RetryDelay = taskRetryDelay
		task.Run = withVerboseDiagnostics(task.Run)
	}

	flow.Name = recipeID
	return flow, nil
}

// withVerboseDiagnostics wraps a task run so the recipe diagnostic logger
// is forced to its most verbose level for the duration of the run. The
// task's result passes through untouched.
func withVerboseDiagnostics(run flows.TaskFunc) flows.TaskFunc {
	if run == nil {
		return nil
	}
	return func(ctx context.Context) error {
		previous := recipes.SetDiagnosticLevel(zerolog.TraceLevel)
		defer recipes.SetDiagnosticLevel(previous)
		return run(ctx)
	}
}
