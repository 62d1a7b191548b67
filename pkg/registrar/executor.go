package registrar

import (
	"fmt"
	"time"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/k8s"
	"github.com/openbakery/openbakery/pkg/meta"
)

// ProjectTag is the project label stamped on every worker pool and driver
// this registrar provisions.
const ProjectTag = "openbakery"

// Per-cluster-type worker sizing defaults, in the cluster's native units,
// used when the manifest supplies no resource hint.
const (
	defaultFargateWorkerCPU    = 1024
	defaultFargateWorkerMemory = 4096

	defaultKubernetesWorkerCPU    = 250
	defaultKubernetesWorkerMemory = 512
)

// Fixed scheduler sizing and scaling policy.
const (
	fargateSchedulerCPU     = 2048
	fargateSchedulerMemory  = 16384
	fargateSchedulerTimeout = 15 * time.Minute

	kubernetesSchedulerCPU    = "2048m"
	kubernetesSchedulerMemory = "10000Mi"

	adaptMinimumWorkers = 5
)

// flowStorageConnEnv is the environment variable carrying the flow-storage
// connection secret into orchestrator-pool workers and drivers.
const flowStorageConnEnv = "BLOB_STORAGE_CONNECTION_STRING"

// BuildExecutor resolves a cluster descriptor plus the manifest's optional
// resource hint into the scalable worker-pool configuration for one recipe.
func BuildExecutor(cluster *meta.Cluster, recipeBakery meta.RecipeBakery, recipeID string, secrets Secrets) (*flows.Executor, error) {
	adapt := flows.ScalingEnvelope{Minimum: adaptMinimumWorkers, Maximum: cluster.MaxWorkers}
	tags := map[string]string{"Project": ProjectTag, "Recipe": recipeID}

	switch cluster.Type {
	case meta.ClusterTypeFargate:
		cpu, mem := workerResources(recipeBakery.Resources,
			defaultFargateWorkerCPU, defaultFargateWorkerMemory)
		return &flows.Executor{
			Type:  flows.PoolTypeFargate,
			Adapt: adapt,
			Fargate: &flows.FargatePool{
				Image:            cluster.WorkerImage,
				VPC:              cluster.ClusterOptions.VPC,
				ClusterARN:       cluster.ClusterOptions.ClusterARN,
				TaskRoleARN:      cluster.ClusterOptions.TaskRoleARN,
				ExecutionRoleARN: cluster.ClusterOptions.ExecutionRoleARN,
				SecurityGroups:   cluster.ClusterOptions.SecurityGroups,
				SchedulerCPU:     fargateSchedulerCPU,
				SchedulerMemory:  fargateSchedulerMemory,
				WorkerCPU:        cpu,
				WorkerMemory:     mem,
				SchedulerTimeout: fargateSchedulerTimeout,
				Environment: map[string]string{
					"FORGE_LOGGING_EXTRA_LOGGERS": "['openbakery_recipes']",
					"MALLOC_TRIM_THRESHOLD_":      "0",
				},
				Tags: tags,
			},
		}, nil

	case meta.ClusterTypeKubernetes:
		cpu, mem := workerResources(recipeBakery.Resources,
			defaultKubernetesWorkerCPU, defaultKubernetesWorkerMemory)

		conn, err := flowStorageConnection(cluster, secrets)
		if err != nil {
			return nil, err
		}

		scheduler := k8s.MakePodTemplate(k8s.PodOptions{
			Image:         cluster.WorkerImage,
			Labels:        tags,
			CPURequest:    kubernetesSchedulerCPU,
			MemoryRequest: kubernetesSchedulerMemory,
			Args:          []string{"scheduler"},
		})
		worker := k8s.MakePodTemplate(k8s.PodOptions{
			Image:         cluster.WorkerImage,
			Labels:        tags,
			CPURequest:    fmt.Sprintf("%dm", cpu),
			MemoryRequest: fmt.Sprintf("%dMi", mem),
			Env:           map[string]string{flowStorageConnEnv: conn},
		})

		return &flows.Executor{
			Type:  flows.PoolTypeKubernetes,
			Adapt: adapt,
			Kubernetes: &flows.KubernetesPool{
				PodTemplate:          worker,
				SchedulerPodTemplate: scheduler,
			},
		}, nil

	default:
		return nil, NewError(KindUnsupportedClusterType,
			fmt.Sprintf("no executor branch for cluster type %q", cluster.Type)).
			WithRecipe(recipeID).WithOperation("build-executor")
	}
}

// workerResources returns the hinted worker sizing, or the cluster-type
// defaults when the manifest carries no hint.
func workerResources(hint *meta.Resources, defaultCPU, defaultMemory int) (int, int) {
	if hint == nil {
		return defaultCPU, defaultMemory
	}
	return hint.CPU, hint.Memory
}

// flowStorageConnection looks up the cluster's flow-storage connection
// secret for injection into orchestrator-pool pods.
func flowStorageConnection(cluster *meta.Cluster, secrets Secrets) (string, error) {
	if cluster.FlowStorageOptions == nil {
		return "", NewError(KindUnsupportedClusterType,
			"orchestrator cluster is missing flow storage options")
	}
	return secrets.Get(cluster.FlowStorageOptions.Secret)
}
