package k8s

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMakePodTemplate(t *testing.T) {
	template := MakePodTemplate(PodOptions{
		Image:         "openbakery/worker:1",
		Labels:        map[string]string{"Project": "openbakery"},
		CPURequest:    "250m",
		MemoryRequest: "512Mi",
		Env: map[string]string{
			"ZETA":  "z",
			"ALPHA": "a",
			"MID":   "m",
		},
		Args: []string{"scheduler"},
	})

	if template.Spec.RestartPolicy != "Never" {
		t.Errorf("Expected restart policy Never, got %s", template.Spec.RestartPolicy)
	}
	if len(template.Spec.Containers) != 1 {
		t.Fatalf("Expected a single container, got %d", len(template.Spec.Containers))
	}

	container := template.Spec.Containers[0]
	if container.Name != "worker" || container.Image != "openbakery/worker:1" {
		t.Errorf("Unexpected container: %s/%s", container.Name, container.Image)
	}
	if container.Resources.Requests["cpu"] != "250m" || container.Resources.Requests["memory"] != "512Mi" {
		t.Errorf("Unexpected resources: %v", container.Resources.Requests)
	}
	if len(container.Args) != 1 || container.Args[0] != "scheduler" {
		t.Errorf("Unexpected args: %v", container.Args)
	}
	if template.Metadata.Labels["Project"] != "openbakery" {
		t.Errorf("Unexpected labels: %v", template.Metadata.Labels)
	}

	// Env vars come out sorted for deterministic rendering.
	want := []string{"ALPHA", "MID", "ZETA"}
	if len(container.Env) != len(want) {
		t.Fatalf("Expected %d env vars, got %d", len(want), len(container.Env))
	}
	for i, name := range want {
		if container.Env[i].Name != name {
			t.Errorf("Env %d: expected %s, got %s", i, name, container.Env[i].Name)
		}
	}
}

func TestJob_YAMLRoundTrip(t *testing.T) {
	const doc = `
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
          image: openbakery/worker:1
`
	var job Job
	if err := yaml.Unmarshal([]byte(doc), &job); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if job.APIVersion != "batch/v1" || job.Kind != "Job" {
		t.Errorf("Unexpected job identity: %s/%s", job.APIVersion, job.Kind)
	}
	if job.Metadata.Annotations["cluster-autoscaler.kubernetes.io/safe-to-evict"] != "false" {
		t.Errorf("Unexpected annotations: %v", job.Metadata.Annotations)
	}
	containers := job.Spec.Template.Spec.Containers
	if len(containers) != 1 || containers[0].Name != "flow" {
		t.Errorf("Unexpected containers: %v", containers)
	}
}
