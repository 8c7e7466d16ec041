package imports

import (
	"testing"

	"github.com/cwbudde/hamlet/internal/ast"
)

func TestApplyXUnitToFixturePolicyRemovesUnittestWhenNoClassRemains(t *testing.T) {
	mod := modWithImports("unittest")
	r := New()
	ApplyXUnitToFixturePolicy(r, false, false)
	r.Reconcile(mod, func(string) bool { return false })

	if len(mod.Imports) != 0 {
		t.Fatalf("Imports = %v, want empty (unittest removed)", names(mod))
	}
}

func TestApplyXUnitToFixturePolicyRequiresFixtureFrameworkWhenConstructAppears(t *testing.T) {
	mod := &ast.Module{}
	r := New()
	ApplyXUnitToFixturePolicy(r, true, true)
	r.Reconcile(mod, func(string) bool { return true })

	if len(mod.Imports) != 1 || mod.Imports[0].Module != ModuleFixtureFramework {
		t.Fatalf("Imports = %v, want [%s]", names(mod), ModuleFixtureFramework)
	}
}

func TestApplyFixtureToXUnitPolicyAlwaysRequiresUnittest(t *testing.T) {
	mod := &ast.Module{}
	r := New()
	ApplyFixtureToXUnitPolicy(r, false)
	r.Reconcile(mod, func(string) bool { return true })

	if len(mod.Imports) != 1 || mod.Imports[0].Module != ModuleUnittest {
		t.Fatalf("Imports = %v, want [%s]", names(mod), ModuleUnittest)
	}
}

func TestApplyFixtureToXUnitPolicyKeepsFixtureFrameworkWhenReferencedByAnnotation(t *testing.T) {
	mod := modWithImports(ModuleFixtureFramework)
	r := New()
	ApplyFixtureToXUnitPolicy(r, true)
	r.Reconcile(mod, func(string) bool { return false })

	found := false
	for _, n := range names(mod) {
		if n == ModuleFixtureFramework {
			found = true
		}
	}
	if !found {
		t.Fatalf("Imports = %v, want %s retained", names(mod), ModuleFixtureFramework)
	}
}
