package registrar

import (
	"fmt"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/meta"
)

// ResolveFlowStorage resolves where a flow's own definition is persisted,
// dispatching on the cluster's flow-storage protocol. The credential
// requirements mirror target resolution: object-store needs a key/secret
// pair, connection-string needs a single secret.
func ResolveFlowStorage(cluster *meta.Cluster, secrets Secrets) (*flows.Storage, error) {
	switch cluster.FlowStorageProtocol {
	case meta.ProtocolS3:
		if cluster.FlowStorageOptions == nil {
			return nil, NewError(KindUnsupportedFlowStorage,
				"object-store flow storage is missing storage options")
		}
		key, err := secrets.Get(cluster.FlowStorageOptions.Key)
		if err != nil {
			return nil, err
		}
		secret, err := secrets.Get(cluster.FlowStorageOptions.Secret)
		if err != nil {
			return nil, err
		}
		return &flows.Storage{
			Protocol:  meta.ProtocolS3,
			Location:  cluster.FlowStorage,
			AccessKey: key,
			SecretKey: secret,
		}, nil

	case meta.ProtocolABFS:
		if cluster.FlowStorageOptions == nil {
			return nil, NewError(KindUnsupportedFlowStorage,
				"connection-string flow storage is missing storage options")
		}
		conn, err := secrets.Get(cluster.FlowStorageOptions.Secret)
		if err != nil {
			return nil, err
		}
		return &flows.Storage{
			Protocol:         meta.ProtocolABFS,
			Location:         cluster.FlowStorage,
			ConnectionString: conn,
		}, nil

	default:
		return nil, NewError(KindUnsupportedFlowStorage,
			fmt.Sprintf("no resolution branch for flow storage protocol %q", cluster.FlowStorageProtocol))
	}
}
