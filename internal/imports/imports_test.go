package imports

import (
	"testing"

	"github.com/cwbudde/hamlet/internal/ast"
)

func modWithImports(mods ...string) *ast.Module {
	mod := &ast.Module{}
	for _, m := range mods {
		mod.Imports = append(mod.Imports, &ast.ImportStmt{Kind: ast.ImportPlain, Module: m})
	}
	return mod
}

func names(mod *ast.Module) []string {
	out := make([]string, len(mod.Imports))
	for i, imp := range mod.Imports {
		out[i] = imp.Module
	}
	return out
}

func TestReconcileAddsMissingRequiredImportInOrder(t *testing.T) {
	mod := modWithImports("os", "zipfile")
	r := New()
	r.Require("pytest")
	r.Reconcile(mod, func(string) bool { return true })

	got := names(mod)
	want := []string{"os", "pytest", "zipfile"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestReconcileRemovesUnreferencedRemovable(t *testing.T) {
	mod := modWithImports("unittest", "os")
	r := New()
	r.MarkRemovable("unittest")
	r.Reconcile(mod, func(module string) bool { return module != "unittest" })

	got := names(mod)
	if len(got) != 1 || got[0] != "os" {
		t.Fatalf("names = %v, want [os]", got)
	}
}

func TestReconcileKeepsRemovableStillReferenced(t *testing.T) {
	mod := modWithImports("unittest")
	r := New()
	r.MarkRemovable("unittest")
	r.Reconcile(mod, func(module string) bool { return module == "unittest" })

	got := names(mod)
	if len(got) != 1 || got[0] != "unittest" {
		t.Fatalf("names = %v, want [unittest], stillReferenced must block removal", got)
	}
}

func TestReconcileDeduplicatesExactDuplicates(t *testing.T) {
	mod := modWithImports("os", "os", "pytest")
	r := New()
	r.Reconcile(mod, func(string) bool { return true })

	got := names(mod)
	want := []string{"os", "pytest"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestReconcileNeverAddsImportWithNoRequirement(t *testing.T) {
	mod := modWithImports("os")
	r := New()
	r.Reconcile(mod, func(string) bool { return true })

	got := names(mod)
	if len(got) != 1 || got[0] != "os" {
		t.Fatalf("names = %v, want [os] unchanged", got)
	}
}

func TestNaturalOrderInsertion(t *testing.T) {
	mod := modWithImports("import2", "import10")
	r := New()
	r.Require("import3")
	r.Reconcile(mod, func(string) bool { return true })

	got := names(mod)
	want := []string{"import2", "import3", "import10"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}
