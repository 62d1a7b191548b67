package registrar

import (
	"fmt"

	"github.com/openbakery/openbakery/pkg/meta"
	"github.com/openbakery/openbakery/pkg/storage"
)

// Targets are the three storage handles a resolved recipe is bound to. All
// three share one filesystem and namespace.
type Targets struct {
	Target        *storage.Target
	InputCache    *storage.CacheTarget
	MetadataCache *storage.MetadataTarget
}

// ResolveTargets resolves a bakery's storage target descriptor into the
// three concrete handles for one recipe. The derived paths are pure
// functions of (protocol, target name, repository, recipe id, extension):
//
//	output    {target}/{repository}/{recipeID}.{extension}
//	cache     {target}/{repository}/{recipeID}/cache
//	metadata  {target}/{repository}/{recipeID}/cache/metadata
//
// Missing credential options or an unknown protocol abort the batch.
func ResolveTargets(bakery *meta.Bakery, recipeBakery meta.RecipeBakery, repository, recipeID, extension string, secrets Secrets) (*Targets, error) {
	targetName := recipeBakery.Target
	target, ok := bakery.Targets[targetName]
	if !ok {
		return nil, NewError(KindUnsupportedTarget,
			fmt.Sprintf("bakery has no target named %q", targetName)).
			WithRecipe(recipeID).WithOperation("resolve-targets")
	}

	fs, err := openTargetFilesystem(target.Private, secrets)
	if err != nil {
		if regErr, ok := err.(*Error); ok {
			return nil, regErr.WithRecipe(recipeID).WithOperation("resolve-targets")
		}
		return nil, err
	}

	base := fmt.Sprintf("%s/%s/%s", targetName, repository, recipeID)
	return &Targets{
		Target:        storage.NewTarget(fs, base+"."+extension),
		InputCache:    storage.NewCacheTarget(fs, base+"/cache"),
		MetadataCache: storage.NewMetadataTarget(fs, base+"/cache/metadata"),
	}, nil
}

// openTargetFilesystem dispatches on the descriptor's protocol and builds
// the shared filesystem handle for the three targets.
func openTargetFilesystem(spec meta.StorageSpec, secrets Secrets) (storage.Filesystem, error) {
	switch spec.Protocol {
	case meta.ProtocolS3:
		if spec.StorageOptions == nil {
			return nil, NewError(KindUnsupportedTarget,
				"object-store target is missing storage options")
		}
		key, err := secrets.Get(spec.StorageOptions.Key)
		if err != nil {
			return nil, err
		}
		secret, err := secrets.Get(spec.StorageOptions.Secret)
		if err != nil {
			return nil, err
		}
		// The input cache target layers its own caching; the filesystem
		// itself must not cache reads.
		return storage.NewObjectStoreFS(storage.ObjectStoreConfig{
			Endpoint:         spec.StorageOptions.Endpoint,
			AccessKey:        key,
			SecretKey:        secret,
			DisableReadCache: true,
		})

	case meta.ProtocolABFS:
		if spec.StorageOptions == nil {
			return nil, NewError(KindUnsupportedTarget,
				"connection-string target is missing storage options")
		}
		conn, err := secrets.Get(spec.StorageOptions.Secret)
		if err != nil {
			return nil, err
		}
		return storage.NewConnStringFS(conn)

	default:
		return nil, NewError(KindUnsupportedTarget,
			fmt.Sprintf("no resolution branch for target protocol %q", spec.Protocol))
	}
}
