// Package fixturegraph resolves the dependency order of fixtures
// reachable from the autoused fixtures of a class being generated.
// Cyclic graphs are rejected at resolve time with no recovery attempt.
package fixturegraph

import (
	"fmt"
	"sort"

	"github.com/cwbudde/hamlet/internal/testir"
)

// CycleError reports a dependency cycle among fixtures; category
// FIXTURE-CYCLE, a hard failure.
type CycleError struct {
	Names []string // the cycle, in traversal order
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("fixture dependency cycle: %v", e.Names)
}

// Node is one fixture in the subgraph reachable from an autoused
// fixture.
type Node struct {
	Name      string
	DependsOn []string
}

const (
	stateUnvisited = 0
	stateVisiting  = 1
	stateVisited   = 2
)

// Resolve performs a topological sort of nodes, visiting in input order
// (document order, never hash order, so results are deterministic) so B
// is ordered before A whenever A depends on B. Names outside the
// reachable set (built-in or framework fixtures with no Node of their
// own) are silently skipped rather than treated as missing.
func Resolve(nodes []Node) ([]string, error) {
	byName := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	state := make(map[string]int, len(nodes))
	var order []string
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case stateVisited:
			return nil
		case stateVisiting:
			cycle := append(append([]string{}, stack...), name)
			return &CycleError{Names: cycle}
		}
		n, ok := byName[name]
		if !ok {
			return nil
		}
		state[name] = stateVisiting
		stack = append(stack, name)
		for _, dep := range n.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = stateVisited
		order = append(order, name)
		return nil
	}

	for _, n := range nodes {
		if err := visit(n.Name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ScopeViolation reports a fixture whose scope is narrower than one of
// its dependencies.
type ScopeViolation struct {
	Fixture      string
	FixtureScope testir.Scope
	Dependency   string
	DepScope     testir.Scope
}

func (v *ScopeViolation) Error() string {
	return fmt.Sprintf("fixture %q (scope %s) depends on %q (scope %s): dependency scope must not outlive dependent",
		v.Fixture, v.FixtureScope, v.Dependency, v.DepScope)
}

// ValidateScopes checks scope monotonicity (a fixture's scope must be at
// least as wide as each dependency's) across a reachable set of
// fixtures, iterating fixture names in sorted order so a violation is
// reported deterministically regardless of map iteration order.
func ValidateScopes(fixtures map[string]*testir.Fixture) error {
	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := fixtures[name]
		for _, dep := range f.DependsOn {
			df, ok := fixtures[dep]
			if !ok {
				continue
			}
			if testir.ScopeRank(f.Scope) < testir.ScopeRank(df.Scope) {
				return &ScopeViolation{Fixture: name, FixtureScope: f.Scope, Dependency: dep, DepScope: df.Scope}
			}
		}
	}
	return nil
}
