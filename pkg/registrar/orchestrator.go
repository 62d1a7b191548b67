package registrar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openbakery/openbakery/pkg/meta"
	"github.com/openbakery/openbakery/pkg/recipes"
	"github.com/openbakery/openbakery/pkg/telemetry"
)

// Environment is the caller-supplied execution context, constructed once by
// the CLI layer. The registrar never reads the process environment itself.
type Environment struct {
	// Repository is the feedstock repository identity ("org/repo"). It
	// becomes the namespace of all derived storage paths.
	Repository string

	// Project is the workflow engine project flows are registered under.
	Project string

	// CorrelationID, when set, triggers an immediate run of every
	// registered flow under that name plus a follow-up automation hook.
	CorrelationID string
}

// Result describes one registered recipe.
type Result struct {
	RecipeID string
	FlowID   string
	RunID    string
}

// Config wires an Orchestrator.
type Config struct {
	// Engine is the external workflow engine client. Required.
	Engine WorkflowEngineClient

	// Loader resolves symbolic recipe references. Required.
	Loader RecipeLoader

	// Hooks registers follow-up automations. Required only when batches
	// run with a correlation id.
	Hooks AutomationHookRegistrar

	// Ledger records registrations locally. Optional.
	Ledger RegistrationLedger

	// Logger is the structured logger. Defaults to a no-op logger.
	Logger zerolog.Logger

	// Metrics is the registration metrics collector. Optional.
	Metrics *telemetry.Metrics

	// Tracer overrides the default tracer. Optional.
	Tracer trace.Tracer
}

// Orchestrator drives the registration batch: version gating, per-recipe
// resolution and assembly, registration with the workflow engine, and the
// optional immediate run plus automation hook. Strictly sequential; the
// first error aborts everything remaining with no rollback of flows already
// registered.
type Orchestrator struct {
	engine  WorkflowEngineClient
	loader  RecipeLoader
	hooks   AutomationHookRegistrar
	ledger  RegistrationLedger
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// NewOrchestrator creates an orchestrator from the given wiring.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Engine == nil {
		return nil, errors.New("registrar: engine client is required")
	}
	if cfg.Loader == nil {
		return nil, errors.New("registrar: recipe loader is required")
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("registrar")
	}
	return &Orchestrator{
		engine:  cfg.Engine,
		loader:  cfg.Loader,
		hooks:   cfg.Hooks,
		ledger:  cfg.Ledger,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  tracer,
	}, nil
}

// RegisterAll registers every recipe of the manifest on its declared
// bakery. It returns the results of the recipes registered before any
// failure; on error, no further recipe is processed.
func (o *Orchestrator) RegisterAll(ctx context.Context, manifest *meta.Manifest, bakeries meta.BakeryTable, secrets Secrets, runtime Versions, env Environment, prune bool) ([]Result, error) {
	ctx, span := o.tracer.Start(ctx, "register-batch",
		trace.WithAttributes(attribute.String("bakery", manifest.Bakery.ID)))
	defer span.End()

	bakery, ok := bakeries[manifest.Bakery.ID]
	if !ok {
		return nil, o.fail(NewError(KindUnknownBakery,
			fmt.Sprintf("no bakery %q in the bakery table", manifest.Bakery.ID)))
	}

	// All-or-nothing version gate: no resolver runs on mismatch.
	if err := CheckVersions(manifest, &bakery.Cluster, runtime); err != nil {
		return nil, o.fail(err)
	}

	var results []Result
	for _, entry := range manifest.Recipes {
		if entry.IsFamily() {
			family, err := o.loader.LoadFamily(entry.FamilyObject)
			if err != nil {
				return results, o.fail(WrapError(KindUnknownRecipe,
					fmt.Sprintf("load recipe family %q", entry.FamilyObject), err))
			}
			// A failing member aborts the remaining siblings and all
			// remaining manifest entries.
			for _, recipeID := range sortedFamilyIDs(family) {
				result, err := o.registerOne(ctx, &bakery, manifest, recipeID, family[recipeID], secrets, env, prune)
				if err != nil {
					return results, o.fail(err)
				}
				results = append(results, result)
			}
			continue
		}

		recipe, err := o.loader.LoadObject(entry.Object)
		if err != nil {
			return results, o.fail(WrapError(KindUnknownRecipe,
				fmt.Sprintf("load recipe %q", entry.Object), err))
		}
		result, err := o.registerOne(ctx, &bakery, manifest, entry.ID, recipe, secrets, env, prune)
		if err != nil {
			return results, o.fail(err)
		}
		results = append(results, result)
	}
	return results, nil
}

// registerOne resolves, assembles and registers a single recipe, then
// triggers the optional immediate run and automation hook.
func (o *Orchestrator) registerOne(ctx context.Context, bakery *meta.Bakery, manifest *meta.Manifest, recipeID string, recipe recipes.Recipe, secrets Secrets, env Environment, prune bool) (Result, error) {
	started := time.Now()
	ctx, span := o.tracer.Start(ctx, "register-recipe",
		trace.WithAttributes(attribute.String("recipe", recipeID)))
	defer span.End()

	logger := o.logger.With().Str("recipe", recipeID).Str("bakery", manifest.Bakery.ID).Logger()

	extension, err := targetExtension(recipe)
	if err != nil {
		return Result{}, err
	}

	targets, err := ResolveTargets(bakery, manifest.Bakery, env.Repository, recipeID, extension, secrets)
	if err != nil {
		return Result{}, err
	}
	logger.Debug().Str("target", targets.Target.URL()).Msg("Targets resolved")

	flow, err := AssembleFlow(bakery, manifest, recipeID, recipe, targets, secrets, prune)
	if err != nil {
		return Result{}, err
	}

	flowID, err := o.engine.RegisterFlow(ctx, env.Project, flow)
	if err != nil {
		return Result{}, err
	}
	if o.metrics != nil {
		o.metrics.FlowRegistered(manifest.Bakery.ID)
	}
	logger.Info().Str("flow_id", flowID).Int("tasks", len(flow.Tasks)).Msg("Flow registered")

	result := Result{RecipeID: recipeID, FlowID: flowID}

	if env.CorrelationID != "" {
		runID, err := o.engine.CreateFlowRun(ctx, flowID, env.CorrelationID)
		if err != nil {
			return Result{}, err
		}
		result.RunID = runID
		if o.metrics != nil {
			o.metrics.RunCreated()
		}

		botToken, err := secrets.Get(BotTokenSecret)
		if err != nil {
			return Result{}, err
		}
		if o.hooks == nil {
			return Result{}, errors.New("registrar: correlation id set but no hook registrar wired")
		}
		if _, err := o.hooks.RegisterHook(ctx, flowID, botToken); err != nil {
			return Result{}, err
		}
		if o.metrics != nil {
			o.metrics.HookRegistered()
		}
		logger.Info().Str("run_id", runID).Str("correlation_id", env.CorrelationID).Msg("Run and automation hook created")
	}

	if o.ledger != nil {
		reg := Registration{
			ID:            uuid.NewString(),
			FlowID:        flowID,
			RecipeID:      recipeID,
			BakeryID:      manifest.Bakery.ID,
			Project:       env.Project,
			RunID:         result.RunID,
			CorrelationID: env.CorrelationID,
			RegisteredAt:  time.Now().UTC(),
		}
		if err := o.ledger.Record(ctx, reg); err != nil {
			return Result{}, fmt.Errorf("record registration: %w", err)
		}
	}

	if o.metrics != nil {
		o.metrics.ObserveRegistration(manifest.Bakery.ID, time.Since(started).Seconds())
	}
	return result, nil
}

// fail funnels every batch failure through metrics and logging once.
func (o *Orchestrator) fail(err error) error {
	var regErr *Error
	if errors.As(err, &regErr) {
		if o.metrics != nil {
			o.metrics.RegistrationError(string(regErr.Kind))
		}
	} else if o.metrics != nil {
		o.metrics.RegistrationError("internal")
	}
	o.logger.Error().Err(err).Msg("Registration batch aborted")
	return err
}

// targetExtension derives the output file extension from the recipe kind.
// The dispatch is exhaustive over supported kinds.
func targetExtension(recipe recipes.Recipe) (string, error) {
	switch kind := recipe.Kind(); kind {
	case recipes.KindZarrArray:
		return "zarr", nil
	default:
		return "", NewError(KindUnsupportedRecipeType,
			fmt.Sprintf("no extension for recipe kind %q", kind))
	}
}

func sortedFamilyIDs(family map[string]recipes.Recipe) []string {
	ids := make([]string, 0, len(family))
	for id := range family {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
