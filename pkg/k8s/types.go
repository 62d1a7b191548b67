// Package k8s defines the minimal Kubernetes object shapes the registrar
// emits for container-orchestrator bakeries. Objects are rendered and
// shipped to the workflow engine as data; no cluster client is involved.
package k8s

import "sort"

// ObjectMeta carries the standard object metadata the registrar sets.
type ObjectMeta struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Namespace   string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type EnvVar struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type ResourceRequirements struct {
	Limits   map[string]string `json:"limits,omitempty" yaml:"limits,omitempty"`
	Requests map[string]string `json:"requests,omitempty" yaml:"requests,omitempty"`
}

type Container struct {
	Name      string               `json:"name" yaml:"name"`
	Image     string               `json:"image,omitempty" yaml:"image,omitempty"`
	Args      []string             `json:"args,omitempty" yaml:"args,omitempty"`
	Env       []EnvVar             `json:"env,omitempty" yaml:"env,omitempty"`
	Resources ResourceRequirements `json:"resources,omitempty" yaml:"resources,omitempty"`
}

type PodSpec struct {
	RestartPolicy string      `json:"restartPolicy,omitempty" yaml:"restartPolicy,omitempty"`
	Containers    []Container `json:"containers" yaml:"containers"`
}

type PodTemplateSpec struct {
	Metadata ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Spec     PodSpec    `json:"spec" yaml:"spec"`
}

type JobSpec struct {
	BackoffLimit *int32          `json:"backoffLimit,omitempty" yaml:"backoffLimit,omitempty"`
	Template     PodTemplateSpec `json:"template" yaml:"template"`
}

type Job struct {
	APIVersion string     `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Kind       string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Metadata   ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec       JobSpec    `json:"spec" yaml:"spec"`
}

// PodOptions parameterizes MakePodTemplate.
type PodOptions struct {
	Image         string
	Labels        map[string]string
	CPURequest    string
	MemoryRequest string
	Env           map[string]string
	Args          []string
}

// MakePodTemplate builds a single-container pod template with the given
// resource requests. Env vars are emitted in sorted order for deterministic
// output.
func MakePodTemplate(opts PodOptions) PodTemplateSpec {
	container := Container{
		Name:  "worker",
		Image: opts.Image,
		Args:  opts.Args,
		Resources: ResourceRequirements{
			Requests: map[string]string{
				"cpu":    opts.CPURequest,
				"memory": opts.MemoryRequest,
			},
		},
	}
	for _, name := range sortedKeys(opts.Env) {
		container.Env = append(container.Env, EnvVar{Name: name, Value: opts.Env[name]})
	}

	return PodTemplateSpec{
		Metadata: ObjectMeta{Labels: opts.Labels},
		Spec: PodSpec{
			RestartPolicy: "Never",
			Containers:    []Container{container},
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
