// Package flows defines the workflow engine's native job representation:
// a named flow with an ordered task sequence, its storage location, its
// driver run config and its worker-pool executor. The registrar fills these
// in; the engine runs them.
package flows

import (
	"context"
	"time"
)

// TaskFunc is the unit of execution the engine invokes for a task.
type TaskFunc func(ctx context.Context) error

// Task is one unit of work in a flow.
type Task struct {
	// Name identifies the task within its flow.
	Name string `json:"name"`

	// MaxRetries is the number of additional attempts the engine makes
	// after a failed run.
	MaxRetries int `json:"max_retries"`

	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration `json:"retry_delay"`

	// Run executes the task. Not serialized; the engine retrieves the
	// executable definition from flow storage.
	Run TaskFunc `json:"-"`
}

// Flow is a fully assembled pipeline job.
type Flow struct {
	// Name is the display name, set to the recipe id by the assembler.
	Name string `json:"name"`

	// Tasks is the ordered task sequence.
	Tasks []*Task `json:"tasks"`

	// Storage is where the flow's own definition is persisted.
	Storage *Storage `json:"storage,omitempty"`

	// RunConfig describes the driver process environment.
	RunConfig *RunConfig `json:"run_config,omitempty"`

	// Executor describes the scalable worker pool the tasks run on.
	Executor *Executor `json:"executor,omitempty"`
}
