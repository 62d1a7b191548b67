package registrar

import (
	"errors"
	"fmt"
)

// Kind classifies a registration failure. Every error produced by this
// package carries exactly one Kind so callers can branch without string
// matching.
type Kind string

const (
	// KindNotebookVersionMismatch indicates the notebook environment version
	// declared by the manifest disagrees with the runtime or the cluster.
	KindNotebookVersionMismatch Kind = "notebook_version_mismatch"

	// KindRecipesVersionMismatch indicates the recipe framework version
	// declared by the manifest disagrees with the runtime or the cluster.
	KindRecipesVersionMismatch Kind = "recipes_version_mismatch"

	// KindEngineVersionMismatch indicates the workflow engine version of the
	// cluster disagrees with the runtime.
	KindEngineVersionMismatch Kind = "engine_version_mismatch"

	// KindUnsupportedTarget indicates a storage target descriptor whose
	// protocol has no resolution branch, or one missing credential options.
	KindUnsupportedTarget Kind = "unsupported_target"

	// KindUnsupportedClusterType indicates a cluster type with no executor
	// or run-config resolution branch.
	KindUnsupportedClusterType Kind = "unsupported_cluster_type"

	// KindUnsupportedFlowStorage indicates a flow storage protocol with no
	// resolution branch.
	KindUnsupportedFlowStorage Kind = "unsupported_flow_storage"

	// KindUnsupportedRecipeType indicates a recipe kind this registrar does
	// not know how to bake.
	KindUnsupportedRecipeType Kind = "unsupported_recipe_type"

	// KindUnknownBakery indicates the manifest references a bakery id that
	// is absent from the bakery table.
	KindUnknownBakery Kind = "unknown_bakery"

	// KindMissingSecret indicates a credential name with no entry in the
	// secrets table.
	KindMissingSecret Kind = "missing_secret"

	// KindUnknownRecipe indicates a symbolic recipe reference with no
	// registered factory.
	KindUnknownRecipe Kind = "unknown_recipe"
)

// Error is the classified error type for the registration engine.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Message is the human-readable error message.
	Message string

	// Recipe is the recipe id being processed when the error occurred,
	// if applicable.
	Recipe string

	// Operation is the resolution step that failed.
	Operation string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Recipe != "" {
		msg = fmt.Sprintf("%s (recipe=%s)", msg, e.Recipe)
	}
	if e.Operation != "" {
		msg = fmt.Sprintf("%s (operation=%s)", msg, e.Operation)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two registrar errors are
// equal when their kinds match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new classified registrar error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a new classified registrar error wrapping err.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithRecipe adds recipe context to an error.
func (e *Error) WithRecipe(recipeID string) *Error {
	e.Recipe = recipeID
	return e
}

// WithOperation adds the failing resolution step to an error.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// IsKind reports whether err is a registrar error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsVersionMismatch reports whether err is any of the three version
// compatibility failures.
func IsVersionMismatch(err error) bool {
	return IsKind(err, KindNotebookVersionMismatch) ||
		IsKind(err, KindRecipesVersionMismatch) ||
		IsKind(err, KindEngineVersionMismatch)
}

// IsUnsupported reports whether err is a dispatch failure: a descriptor
// whose protocol or type tag has no matching resolution branch.
func IsUnsupported(err error) bool {
	return IsKind(err, KindUnsupportedTarget) ||
		IsKind(err, KindUnsupportedClusterType) ||
		IsKind(err, KindUnsupportedFlowStorage) ||
		IsKind(err, KindUnsupportedRecipeType)
}
