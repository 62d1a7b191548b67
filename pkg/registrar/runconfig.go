package registrar

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/k8s"
	"github.com/openbakery/openbakery/pkg/meta"
)

// kubernetesJobTemplate is the base job the orchestrator-pool driver runs
// as. The eviction annotation keeps the autoscaler from preempting a live
// driver mid-flow.
const kubernetesJobTemplate = `
apiVersion: batch/v1
kind: Job
metadata:
  annotations:
    "cluster-autoscaler.kubernetes.io/safe-to-evict": "false"
spec:
  template:
    spec:
      containers:
        - name: flow
`

// BuildRunConfig resolves the cluster descriptor into the execution
// environment of the flow's driver process.
func BuildRunConfig(cluster *meta.Cluster, recipeBakery meta.RecipeBakery, recipeID string, secrets Secrets) (*flows.RunConfig, error) {
	switch cluster.Type {
	case meta.ClusterTypeFargate:
		return &flows.RunConfig{
			Type: flows.PoolTypeFargate,
			Fargate: &flows.FargateRun{
				Image:  cluster.WorkerImage,
				Labels: []string{recipeBakery.ID},
				TaskDefinition: flows.TaskDefinition{
					NetworkMode:          "awsvpc",
					CPU:                  fargateSchedulerCPU,
					Memory:               fargateSchedulerMemory,
					ContainerDefinitions: []flows.ContainerDefinition{{Name: "flow"}},
					ExecutionRoleARN:     cluster.ClusterOptions.ExecutionRoleARN,
				},
				Tags: []flows.Tag{
					{Key: "Project", Value: ProjectTag},
					{Key: "Recipe", Value: recipeID},
				},
			},
		}, nil

	case meta.ClusterTypeKubernetes:
		var job k8s.Job
		if err := yaml.Unmarshal([]byte(kubernetesJobTemplate), &job); err != nil {
			return nil, fmt.Errorf("decode job template: %w", err)
		}

		conn, err := flowStorageConnection(cluster, secrets)
		if err != nil {
			return nil, err
		}

		return &flows.RunConfig{
			Type: flows.PoolTypeKubernetes,
			Kubernetes: &flows.KubernetesRun{
				JobTemplate:   job,
				Image:         cluster.WorkerImage,
				Labels:        []string{recipeBakery.ID},
				CPURequest:    kubernetesSchedulerCPU,
				MemoryRequest: kubernetesSchedulerMemory,
				Env:           map[string]string{flowStorageConnEnv: conn},
			},
		}, nil

	default:
		return nil, NewError(KindUnsupportedClusterType,
			fmt.Sprintf("no run-config branch for cluster type %q", cluster.Type)).
			WithRecipe(recipeID).WithOperation("build-run-config")
	}
}
