package flows

import (
	"time"

	"github.com/openbakery/openbakery/pkg/k8s"
)

// PoolType tags the worker-pool variant of an executor or run config.
type PoolType string

const (
	// PoolTypeFargate is the ephemeral serverless pool variant.
	PoolTypeFargate PoolType = "fargate"

	// PoolTypeKubernetes is the container orchestrator pool variant.
	PoolTypeKubernetes PoolType = "kubernetes"
)

// ScalingEnvelope is the adaptive scaling policy declared for a worker pool.
// It is a desired-policy declaration consumed by the execution engine; the
// registrar never manages worker lifecycle itself.
type ScalingEnvelope struct {
	Minimum int `json:"minimum"`
	Maximum int `json:"maximum"`
}

// Executor is the scalable worker-pool configuration attached to a flow.
// Exactly one of Fargate or Kubernetes is set, matching Type.
type Executor struct {
	Type       PoolType        `json:"type"`
	Adapt      ScalingEnvelope `json:"adapt"`
	Fargate    *FargatePool    `json:"fargate,omitempty"`
	Kubernetes *KubernetesPool `json:"kubernetes,omitempty"`
}

// FargatePool configures an ephemeral serverless worker pool.
type FargatePool struct {
	Image            string            `json:"image"`
	VPC              string            `json:"vpc,omitempty"`
	ClusterARN       string            `json:"cluster_arn,omitempty"`
	TaskRoleARN      string            `json:"task_role_arn,omitempty"`
	ExecutionRoleARN string            `json:"execution_role_arn,omitempty"`
	SecurityGroups   []string          `json:"security_groups,omitempty"`
	SchedulerCPU     int               `json:"scheduler_cpu"`
	SchedulerMemory  int               `json:"scheduler_mem"`
	WorkerCPU        int               `json:"worker_cpu"`
	WorkerMemory     int               `json:"worker_mem"`
	SchedulerTimeout time.Duration     `json:"scheduler_timeout"`
	Environment      map[string]string `json:"environment,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// KubernetesPool configures a container-orchestrator worker pool.
type KubernetesPool struct {
	PodTemplate          k8s.PodTemplateSpec `json:"pod_template"`
	SchedulerPodTemplate k8s.PodTemplateSpec `json:"scheduler_pod_template"`
}
