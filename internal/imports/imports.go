// Package imports reconciles the import list implied by a direction's
// rewrites. It runs last in the transformation driver's pipeline.
package imports

import (
	"fmt"
	"sort"

	"github.com/maruel/natural"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cwbudde/hamlet/internal/ast"
)

var collator = collate.New(language.Und)

// less orders module names the way "insert preserving alphabetical
// order" must actually behave: natural order (so "import2" sorts before
// "import10"), falling back to locale-stable collation only when natural
// order considers two names equal, to give a deterministic total order.
func less(a, b string) bool {
	if natural.Less(a, b) {
		return true
	}
	if natural.Less(b, a) {
		return false
	}
	return collator.CompareString(a, b) < 0
}

func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool { return less(names[i], names[j]) })
}

// Reconciler accumulates the set of module names required and removable
// by the rules that fired during one transform, for application once the
// driver reaches its fixed point.
type Reconciler struct {
	required  map[string]bool
	removable map[string]bool
}

// New returns an empty Reconciler.
func New() *Reconciler {
	return &Reconciler{required: map[string]bool{}, removable: map[string]bool{}}
}

// Require records that module must appear in the output's import list.
func (r *Reconciler) Require(module string) { r.required[module] = true }

// MarkRemovable records that module is a removal candidate: it is
// dropped only if Reconcile's stillReferenced callback says nothing else
// in the module uses it.
func (r *Reconciler) MarkRemovable(module string) { r.removable[module] = true }

// Reconcile applies the accumulated required/removable sets to mod's
// import list: de-duplicates exact duplicates, drops removable imports
// with no remaining reference, then inserts any missing required import
// in natural+collation order. stillReferenced must report whether
// non-import code elsewhere in mod still uses module; reconciliation
// itself never inspects arbitrary non-test code, and an import with any
// remaining reference is never removed.
func (r *Reconciler) Reconcile(mod *ast.Module, stillReferenced func(module string) bool) {
	dedupe(mod)

	var kept []*ast.ImportStmt
	for _, imp := range mod.Imports {
		if r.removable[imp.Module] && !stillReferenced(imp.Module) {
			continue
		}
		kept = append(kept, imp)
	}
	mod.Imports = kept

	have := make(map[string]bool, len(mod.Imports))
	for _, imp := range mod.Imports {
		have[imp.Module] = true
	}

	var toAdd []string
	for name := range r.required {
		if !have[name] {
			toAdd = append(toAdd, name)
		}
	}
	sortNames(toAdd)
	for _, name := range toAdd {
		insert(mod, &ast.ImportStmt{Kind: ast.ImportPlain, Module: name})
	}
}

// dedupe removes exact-duplicate import statements (same kind, module,
// names, and alias). Near-duplicates are left alone.
func dedupe(mod *ast.Module) {
	seen := make(map[string]bool, len(mod.Imports))
	var kept []*ast.ImportStmt
	for _, imp := range mod.Imports {
		key := dedupeKey(imp)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, imp)
	}
	mod.Imports = kept
}

func dedupeKey(imp *ast.ImportStmt) string {
	key := fmt.Sprintf("%d|%s|%s", imp.Kind, imp.Module, imp.Alias)
	for _, n := range imp.Names {
		key += "|" + n
	}
	return key
}

// insert adds imp in natural+collation order relative to mod's existing
// imports. If mod already has an import block, imp is placed within it
// preserving order; otherwise it becomes the sole (first) import,
// equivalent to "append after the last top-of-file import" when there is
// none yet.
func insert(mod *ast.Module, imp *ast.ImportStmt) {
	idx := len(mod.Imports)
	for i, existing := range mod.Imports {
		if less(imp.Module, existing.Module) {
			idx = i
			break
		}
	}
	mod.Imports = append(mod.Imports, nil)
	copy(mod.Imports[idx+1:], mod.Imports[idx:])
	mod.Imports[idx] = imp
}
