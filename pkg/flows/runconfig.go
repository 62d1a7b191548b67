package flows

import "github.com/openbakery/openbakery/pkg/k8s"

// RunConfig describes the execution environment of a flow's driver process,
// distinct from the worker pool its tasks run on. Exactly one variant is
// set, matching Type.
type RunConfig struct {
	Type       PoolType       `json:"type"`
	Fargate    *FargateRun    `json:"fargate,omitempty"`
	Kubernetes *KubernetesRun `json:"kubernetes,omitempty"`
}

// ContainerDefinition is one container of a serverless task definition.
type ContainerDefinition struct {
	Name string `json:"name"`
}

// TaskDefinition sizes the serverless driver task.
type TaskDefinition struct {
	NetworkMode          string                `json:"networkMode"`
	CPU                  int                   `json:"cpu"`
	Memory               int                   `json:"memory"`
	ContainerDefinitions []ContainerDefinition `json:"containerDefinitions"`
	ExecutionRoleARN     string                `json:"executionRoleArn,omitempty"`
}

// Tag is a key/value pair attached to serverless run tasks.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FargateRun is the serverless driver run config.
type FargateRun struct {
	Image          string         `json:"image"`
	Labels         []string       `json:"labels,omitempty"`
	TaskDefinition TaskDefinition `json:"task_definition"`
	Tags           []Tag          `json:"tags,omitempty"`
}

// KubernetesRun is the container-orchestrator driver run config.
type KubernetesRun struct {
	JobTemplate   k8s.Job           `json:"job_template"`
	Image         string            `json:"image"`
	Labels        []string          `json:"labels,omitempty"`
	CPURequest    string            `json:"cpu_request,omitempty"`
	MemoryRequest string            `json:"memory_request,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// Storage is the flow-storage handle: where the flow's own definition is
// persisted for the engine to retrieve. Exactly the credential fields of the
// matching protocol are set.
type Storage struct {
	Protocol string `json:"protocol"`

	// Location is the bucket or container holding flow definitions.
	Location string `json:"location"`

	// AccessKey and SecretKey are set for object-store flow storage.
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`

	// ConnectionString is set for connection-string flow storage.
	ConnectionString string `json:"connection_string,omitempty"`
}
