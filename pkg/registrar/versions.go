package registrar

import (
	"fmt"

	"github.com/openbakery/openbakery/pkg/meta"
)

// Versions is the runtime's copy of the toolchain version triple. The
// manifest and the bakery cluster each carry their own copy; all three must
// agree before any recipe is resolved.
type Versions struct {
	Notebook string
	Recipes  string
	Engine   string
}

// CheckVersions gates the batch on three-way version agreement. The first
// failing comparison aborts with its specific mismatch kind; nothing is
// resolved or registered on failure.
func CheckVersions(manifest *meta.Manifest, cluster *meta.Cluster, runtime Versions) error {
	if manifest.NotebookVersion != runtime.Notebook {
		return NewError(KindNotebookVersionMismatch,
			fmt.Sprintf("manifest declares notebook %s but runtime is %s",
				manifest.NotebookVersion, runtime.Notebook))
	}
	if manifest.NotebookVersion != cluster.NotebookVersion {
		return NewError(KindNotebookVersionMismatch,
			fmt.Sprintf("manifest declares notebook %s but cluster runs %s",
				manifest.NotebookVersion, cluster.NotebookVersion))
	}
	if manifest.RecipesVersion != runtime.Recipes {
		return NewError(KindRecipesVersionMismatch,
			fmt.Sprintf("manifest declares recipes %s but runtime is %s",
				manifest.RecipesVersion, runtime.Recipes))
	}
	if manifest.RecipesVersion != cluster.RecipesVersion {
		return NewError(KindRecipesVersionMismatch,
			fmt.Sprintf("manifest declares recipes %s but cluster runs %s",
				manifest.RecipesVersion, cluster.RecipesVersion))
	}
	if cluster.EngineVersion != runtime.Engine {
		return NewError(KindEngineVersionMismatch,
			fmt.Sprintf("cluster declares engine %s but runtime is %s",
				cluster.EngineVersion, runtime.Engine))
	}
	return nil
}
