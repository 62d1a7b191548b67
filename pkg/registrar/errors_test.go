package registrar

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_MessageComposition(t *testing.T) {
	err := NewError(KindUnsupportedTarget, "no branch for protocol").
		WithRecipe("oisst-avhrr").WithOperation("resolve-targets")

	msg := err.Error()
	for _, want := range []string{"unsupported_target", "no branch for protocol", "oisst-avhrr", "resolve-targets"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q, got: %s", want, msg)
		}
	}
}

func TestError_WrappingAndKinds(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(KindUnknownRecipe, "load recipe", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be reachable via errors.Is")
	}
	if !IsKind(err, KindUnknownRecipe) {
		t.Error("Expected IsKind to match the wrapped kind")
	}
	if IsKind(err, KindUnknownBakery) {
		t.Error("Expected IsKind to reject other kinds")
	}

	// Kind matching survives further wrapping.
	wrapped := fmt.Errorf("outer: %w", err)
	if !IsKind(wrapped, KindUnknownRecipe) {
		t.Error("Expected IsKind to see through fmt.Errorf wrapping")
	}
	if !errors.Is(wrapped, NewError(KindUnknownRecipe, "")) {
		t.Error("Expected errors.Is to match on kind alone")
	}
}

func TestIsUnsupported(t *testing.T) {
	for _, kind := range []Kind{
		KindUnsupportedTarget, KindUnsupportedClusterType,
		KindUnsupportedFlowStorage, KindUnsupportedRecipeType,
	} {
		if !IsUnsupported(NewError(kind, "x")) {
			t.Errorf("Expected %s to be an unsupported-dispatch kind", kind)
		}
	}
	if IsUnsupported(NewError(KindMissingSecret, "x")) {
		t.Error("Expected missing secret not to be an unsupported-dispatch kind")
	}
}

func TestSecrets_Get(t *testing.T) {
	secrets := Secrets{"NAME": "value"}

	got, err := secrets.Get("NAME")
	if err != nil || got != "value" {
		t.Fatalf("Expected value, got %q, %v", got, err)
	}

	_, err = secrets.Get("ABSENT")
	if !IsKind(err, KindMissingSecret) {
		t.Fatalf("Expected missing secret error, got: %v", err)
	}
}
