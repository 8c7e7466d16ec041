package fixturegraph

import (
	"testing"

	"github.com/cwbudde/hamlet/internal/testir"
)

func TestResolveOrdersDependenciesBeforeDependents(t *testing.T) {
	nodes := []Node{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: nil},
	}
	order, err := Resolve(nodes)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("order = %v, want [b a]", order)
	}
}

func TestResolveDetectsCycle(t *testing.T) {
	nodes := []Node{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	}
	_, err := Resolve(nodes)
	if err == nil {
		t.Fatal("expected a CycleError")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("err = %T, want *CycleError", err)
	}
}

func TestResolveSkipsUnreachableNames(t *testing.T) {
	nodes := []Node{
		{Name: "a", DependsOn: []string{"tmp_path"}},
	}
	order, err := Resolve(nodes)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("order = %v, want [a]", order)
	}
}

func TestValidateScopesAcceptsMonotonicScopes(t *testing.T) {
	fixtures := map[string]*testir.Fixture{
		"a": {Name: "a", Scope: testir.ScopePerSession, DependsOn: []string{"b"}},
		"b": {Name: "b", Scope: testir.ScopePerTest},
	}
	if err := ValidateScopes(fixtures); err != nil {
		t.Fatalf("ValidateScopes error: %v", err)
	}
}

func TestValidateScopesRejectsNarrowerDependent(t *testing.T) {
	fixtures := map[string]*testir.Fixture{
		"a": {Name: "a", Scope: testir.ScopePerTest, DependsOn: []string{"b"}},
		"b": {Name: "b", Scope: testir.ScopePerSession},
	}
	err := ValidateScopes(fixtures)
	if err == nil {
		t.Fatal("expected a ScopeViolation")
	}
	if _, ok := err.(*ScopeViolation); !ok {
		t.Fatalf("err = %T, want *ScopeViolation", err)
	}
}
