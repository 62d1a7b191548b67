package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openbakery/openbakery/pkg/meta"
	"github.com/openbakery/openbakery/pkg/registrar"
	"github.com/openbakery/openbakery/pkg/storage"
)

func newValidateCommand() *cobra.Command {
	var (
		watch bool
		probe bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the recipe manifest and bakery table",
		Long: `Validate parses the recipe manifest and the bakery table, checks both
against their CUE schemas and runs the structural validators without
touching the workflow engine.

With --probe the declared storage target is also opened and its bucket
checked for reachability. With --watch the files are re-validated on
every change until interrupted.`,
		Example: `  # One-shot validation
  bakeryctl validate -m feedstock/meta.yaml -b bakeries.yaml

  # Re-validate on save while editing a manifest
  bakeryctl validate --watch

  # Also check that the storage target is reachable
  bakeryctl validate --probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := validateOnce(ctx, probe); err != nil {
				if !watch {
					return err
				}
				log.Error().Err(err).Msg("Validation failed")
			}
			if !watch {
				fmt.Println("manifest and bakery table are valid")
				return nil
			}
			return watchAndValidate(ctx, probe)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-validate on file changes")
	cmd.Flags().BoolVar(&probe, "probe", false, "probe the declared storage target")

	return cmd
}

func validateOnce(ctx context.Context, probe bool) error {
	parser := meta.NewParser()

	manifest, err := parser.ParseManifestFile(manifestPath)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", manifestPath, err)
	}
	bakeries, err := parser.ParseBakeriesFile(bakeriesPath)
	if err != nil {
		return fmt.Errorf("bakery table %s: %w", bakeriesPath, err)
	}

	bakery, ok := bakeries[manifest.Bakery.ID]
	if !ok {
		return fmt.Errorf("manifest references unknown bakery %q", manifest.Bakery.ID)
	}
	if _, ok := bakery.Targets[manifest.Bakery.Target]; !ok {
		return fmt.Errorf("bakery %q has no target %q", manifest.Bakery.ID, manifest.Bakery.Target)
	}

	log.Info().
		Str("title", manifest.Title).
		Str("bakery", manifest.Bakery.ID).
		Int("recipes", len(manifest.Recipes)).
		Msg("Manifest validated")

	if !probe {
		return nil
	}
	return probeTarget(ctx, &bakery, manifest)
}

// probeTarget opens the manifest's storage target and checks the bucket is
// reachable. Credentials come from the environment, as during registration.
func probeTarget(ctx context.Context, bakery *meta.Bakery, manifest *meta.Manifest) error {
	targets, err := registrar.ResolveTargets(bakery, manifest.Bakery,
		"probe/probe", "probe", "zarr", secretsFromEnv())
	if err != nil {
		return fmt.Errorf("open storage target: %w", err)
	}

	prober, ok := targets.Target.FS.(storage.Prober)
	if !ok {
		log.Debug().Str("scheme", targets.Target.FS.Scheme()).Msg("Target filesystem is not probeable, skipping")
		return nil
	}

	bucket, _, _ := strings.Cut(manifest.Bakery.Target, "/")
	if err := prober.Probe(ctx, bucket); err != nil {
		return fmt.Errorf("probe bucket %q: %w", bucket, err)
	}
	log.Info().Str("bucket", bucket).Msg("Storage target reachable")
	return nil
}

// watchAndValidate re-runs validation whenever either file changes, with a
// short debounce so editors that write twice trigger one run.
func watchAndValidate(ctx context.Context, probe bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range []string{manifestPath, bakeriesPath} {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	log.Info().Str("manifest", manifestPath).Str("bakeries", bakeriesPath).Msg("Watching for changes")

	var revalidate *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("File changed")
			if revalidate != nil {
				revalidate.Stop()
			}
			revalidate = time.AfterFunc(500*time.Millisecond, func() {
				if err := validateOnce(ctx, probe); err != nil {
					log.Error().Err(err).Msg("Validation failed")
					return
				}
				log.Info().Msg("Manifest and bakery table are valid")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}
