package recipes

import (
	"testing"
)

func TestRegistryLoader_LoadObject(t *testing.T) {
	Reset()
	defer Reset()

	recipe := &ZarrArrayRecipe{Inputs: []string{"a"}}
	Register("recipe:oisst", recipe)

	loaded, err := RegistryLoader{}.LoadObject("recipe:oisst")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded != recipe {
		t.Error("Expected the registered recipe back")
	}

	if _, err := (RegistryLoader{}).LoadObject("recipe:absent"); err == nil {
		t.Error("Expected an error for an unregistered reference")
	}
}

func TestRegistryLoader_LoadFamily(t *testing.T) {
	Reset()
	defer Reset()

	family := map[string]Recipe{
		"cmip6-tas": &ZarrArrayRecipe{},
		"cmip6-pr":  &ZarrArrayRecipe{},
	}
	RegisterFamily("family:cmip6", family)

	loaded, err := RegistryLoader{}.LoadFamily("family:cmip6")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("Expected 2 family members, got %d", len(loaded))
	}

	if _, err := (RegistryLoader{}).LoadFamily("family:absent"); err == nil {
		t.Error("Expected an error for an unregistered family")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Reset()
	defer Reset()

	Register("recipe:dup", &ZarrArrayRecipe{})

	defer func() {
		if recover() == nil {
			t.Error("Expected a panic on duplicate registration")
		}
	}()
	Register("recipe:dup", &ZarrArrayRecipe{})
}
