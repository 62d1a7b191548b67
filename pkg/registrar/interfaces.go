package registrar

import (
	"context"
	"time"

	"github.com/openbakery/openbakery/pkg/flows"
	"github.com/openbakery/openbakery/pkg/recipes"
)

// WorkflowEngineClient is the external workflow engine this registrar
// delegates to. Calls are synchronous; the orchestrator performs no
// internal timeout handling beyond the caller's context.
type WorkflowEngineClient interface {
	// RegisterFlow registers an assembled flow under a project and
	// returns the engine-assigned flow id.
	RegisterFlow(ctx context.Context, project string, flow *flows.Flow) (string, error)

	// CreateFlowRun triggers an immediate run of a registered flow and
	// returns the run id.
	CreateFlowRun(ctx context.Context, flowID, runName string) (string, error)
}

// AutomationHookRegistrar registers follow-up automations reacting to run
// outcomes.
type AutomationHookRegistrar interface {
	RegisterHook(ctx context.Context, flowID, botToken string) (string, error)
}

// RecipeLoader resolves the manifest's symbolic recipe references to
// computation objects. References are resolved against a registration
// table, never by loading code at run time.
type RecipeLoader interface {
	LoadObject(ref string) (recipes.Recipe, error)
	LoadFamily(ref string) (map[string]recipes.Recipe, error)
}

// Registration is one ledger entry for a registered flow.
type Registration struct {
	ID            string
	FlowID        string
	RecipeID      string
	BakeryID      string
	Project       string
	RunID         string
	CorrelationID string
	RegisteredAt  time.Time
}

// RegistrationLedger records registrations for later inspection. A nil
// ledger on the orchestrator disables recording.
type RegistrationLedger interface {
	Record(ctx context.Context, reg Registration) error
}
