package commands

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/meta"
	"github.com/openbakery/openbakery/pkg/recipes"
	"github.com/openbakery/openbakery/pkg/registrar"
	"github.com/openbakery/openbakery/pkg/stores"
	"github.com/openbakery/openbakery/pkg/telemetry"
)

func newRegisterCommand(version string) *cobra.Command {
	var (
		engineURL     string
		engineToken   string
		project       string
		repository    string
		correlationID string
		prune         bool
		ledgerPath    string
		metricsListen string
		traceSpans    bool

		notebookVersion string
		recipesVersion  string
		engineVersion   string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the manifest's recipes with the workflow engine",
		Long: `Register resolves every recipe of the manifest against its declared
bakery and registers the resulting flows with the workflow engine.

The batch is strictly sequential and all-or-nothing per failure: the
first error aborts everything remaining, and flows already registered
are not rolled back. With --correlation-id each registered flow is also
run immediately and an automation hook is attached.`,
		Example: `  # Register all recipes of a feedstock
  bakeryctl register -m feedstock/meta.yaml -b bakeries.yaml \
      --project openbakery --repository org/feedstock

  # Register, run immediately and attach automation hooks
  bakeryctl register --correlation-id "$GITHUB_RUN_ID" ...

  # Smoke-test with pruned recipes
  bakeryctl register --prune ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parser := meta.NewParser()
			manifest, err := parser.ParseManifestFile(manifestPath)
			if err != nil {
				return fmt.Errorf("parse manifest: %w", err)
			}
			bakeries, err := parser.ParseBakeriesFile(bakeriesPath)
			if err != nil {
				return fmt.Errorf("parse bakery table: %w", err)
			}

			if repository == "" {
				repository = os.Getenv("GITHUB_REPOSITORY")
			}
			if repository == "" {
				return fmt.Errorf("repository is required (flag --repository or GITHUB_REPOSITORY)")
			}
			if engineToken == "" {
				engineToken = os.Getenv("ENGINE_API_TOKEN")
			}

			telemetryCfg := telemetry.DefaultConfig()
			telemetryCfg.ServiceVersion = version
			if verbose {
				telemetryCfg.Logging.Level = "debug"
			}
			logger, err := telemetry.NewLogger(telemetryCfg.Logging)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			metrics := telemetry.NewMetrics(telemetryCfg.Metrics)
			if metricsListen != "" {
				mux := http.NewServeMux()
				mux.Handle(telemetryCfg.Metrics.Path, metrics.Handler())
				go func() {
					if err := http.ListenAndServe(metricsListen, mux); err != nil {
						logger.Warn().Err(err).Msg("Metrics endpoint stopped")
					}
				}()
			}

			telemetryCfg.Tracing.Enabled = traceSpans
			tracer, err := telemetry.NewTracer(telemetryCfg.Tracing,
				telemetryCfg.ServiceName, version, telemetryCfg.Environment)
			if err != nil {
				return fmt.Errorf("configure tracing: %w", err)
			}
			defer func() {
				if err := tracer.Shutdown(ctx); err != nil {
					logger.Warn().Err(err).Msg("Tracer shutdown failed")
				}
			}()

			engine := flows.NewClient(engineURL, engineToken, logger)

			cfg := registrar.Config{
				Engine:  engine,
				Loader:  recipes.RegistryLoader{},
				Hooks:   engine,
				Logger:  logger,
				Metrics: metrics,
			}

			if ledgerPath != "" {
				ledger, err := stores.NewLedger(stores.Config{Path: ledgerPath})
				if err != nil {
					return fmt.Errorf("create ledger: %w", err)
				}
				if err := ledger.Init(ctx); err != nil {
					return fmt.Errorf("initialize ledger: %w", err)
				}
				defer ledger.Close()
				cfg.Ledger = ledger
			}

			orchestrator, err := registrar.NewOrchestrator(cfg)
			if err != nil {
				return err
			}

			runtime := registrar.Versions{
				Notebook: notebookVersion,
				Recipes:  recipesVersion,
				Engine:   engineVersion,
			}
			env := registrar.Environment{
				Repository:    repository,
				Project:       project,
				CorrelationID: correlationID,
			}

			log.Info().
				Str("manifest", manifestPath).
				Str("bakery", manifest.Bakery.ID).
				Str("repository", repository).
				Int("recipes", len(manifest.Recipes)).
				Bool("prune", prune).
				Msg("Starting registration batch")

			results, err := orchestrator.RegisterAll(ctx, manifest, bakeries,
				secretsFromEnv(), runtime, env, prune)
			if err != nil {
				return err
			}

			for _, result := range results {
				if jsonOutput {
					fmt.Printf("{\"recipe\":%q,\"flow_id\":%q,\"run_id\":%q}\n",
						result.RecipeID, result.FlowID, result.RunID)
					continue
				}
				fmt.Printf("registered %s as flow %s", result.RecipeID, result.FlowID)
				if result.RunID != "" {
					fmt.Printf(" (run %s)", result.RunID)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineURL, "engine-url", "http://localhost:4200", "workflow engine API base URL")
	cmd.Flags().StringVar(&engineToken, "engine-token", "", "workflow engine API token (default: ENGINE_API_TOKEN)")
	cmd.Flags().StringVar(&project, "project", "openbakery", "workflow engine project")
	cmd.Flags().StringVar(&repository, "repository", "", "feedstock repository (org/repo, default: GITHUB_REPOSITORY)")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "run name; triggers an immediate run plus automation hook")
	cmd.Flags().BoolVar(&prune, "prune", false, "register pruned recipes for smoke testing")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite ledger path (empty disables the ledger)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "address for the Prometheus metrics endpoint")
	cmd.Flags().BoolVar(&traceSpans, "trace", false, "emit registration spans to stdout")
	cmd.Flags().StringVar(&notebookVersion, "notebook-version", "", "notebook toolchain version of this checkout")
	cmd.Flags().StringVar(&recipesVersion, "recipes-version", "", "recipes library version of this checkout")
	cmd.Flags().StringVar(&engineVersion, "engine-version", "", "workflow engine version this runtime targets")

	return cmd
}

// secretsFromEnv snapshots the process environment as the secret table.
// Resolution by name happens later, against manifest-declared option names.
func secretsFromEnv() registrar.Secrets {
	secrets := make(registrar.Secrets)
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			secrets[name] = value
		}
	}
	return secrets
}
