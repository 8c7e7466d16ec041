package recognizer

import (
	"strings"

	"github.com/cwbudde/hamlet/internal/ast"
	"github.com/cwbudde/hamlet/internal/exprutil"
	"github.com/cwbudde/hamlet/internal/testir"
)

// lastSegment returns the final dotted component of a decorator name, so
// "pytest.mark.skip" and "skip" both match on "skip".
func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// recognizeMarkers recognizes marker decorators: `skip`, `skipIf`,
// `skipUnless` (xUnit) or `mark.skip`, `mark.skipif`, `mark.parametrize`
// (fixture dialect, with or without the `pytest.` prefix) are
// recognized markers; parametrize is
// folded in here since both are purely decorator-shaped recognition over
// the same stack. It returns the recognized marker node-ids in decorator
// order, plus the set of parametrize variable names so the caller can tag
// matching parameter bindings as BindParametrizeVar.
func recognizeMarkers(f *ast.FunctionDef, t *testir.Table) ([]ast.NodeID, map[string]bool) {
	var ids []ast.NodeID
	paramVars := make(map[string]bool)

	for _, d := range f.Decorators {
		seg := strings.ToLower(lastSegment(d.Name))
		var m *testir.Marker

		switch seg {
		case "parametrize":
			names, rows := "", ""
			if len(d.Args) > 0 {
				names = d.Args[0]
			}
			if len(d.Args) > 1 {
				rows = d.Args[1]
			}
			for _, v := range splitParamNames(names) {
				paramVars[v] = true
			}
			m = &testir.Marker{Kind: testir.MarkerParametrize, ParamNames: names, Rows: rows}
		case "skip":
			reason := ""
			if len(d.Args) > 0 {
				reason = d.Args[0]
				if key, value, ok := exprutil.KeywordArg(d.Args[0]); ok && key == "reason" {
					reason = value
				}
			}
			m = &testir.Marker{Kind: testir.MarkerSkip, Reason: reason}
		case "skipif":
			cond, reason := "", ""
			if len(d.Args) > 0 {
				cond = d.Args[0]
			}
			for _, arg := range d.Args[1:] {
				if key, value, ok := exprutil.KeywordArg(arg); ok && key == "reason" {
					reason = value
				} else if reason == "" {
					reason = arg
				}
			}
			m = &testir.Marker{Kind: testir.MarkerSkipIf, Condition: cond, Reason: reason}
		case "skipunless":
			cond, reason := "", ""
			if len(d.Args) > 0 {
				cond = d.Args[0]
			}
			for _, arg := range d.Args[1:] {
				if key, value, ok := exprutil.KeywordArg(arg); ok && key == "reason" {
					reason = value
				} else if reason == "" {
					reason = arg
				}
			}
			m = &testir.Marker{Kind: testir.MarkerSkipUnless, Condition: cond, Reason: reason}
		case "with_setup":
			// nose2-style plugin decorator; recognized only so the rule
			// registry can flag it UNCONVERTIBLE-NOSE-PLUGIN.
			m = &testir.Marker{Kind: testir.MarkerCustom, Name: d.Name, Args: d.Args}
		default:
			lower := strings.ToLower(d.Name)
			if strings.HasPrefix(lower, "mark.") || strings.HasPrefix(lower, "pytest.mark.") {
				m = &testir.Marker{Kind: testir.MarkerCustom, Name: d.Name, Args: d.Args}
			}
		}

		if m == nil {
			continue
		}
		m.NodeID = d.ID()
		t.Markers[d.ID()] = m
		ids = append(ids, d.ID())
	}

	return ids, paramVars
}

// splitParamNames splits a parametrize "names" string literal argument
// (e.g. `"x,expected"` or `"x, expected"`) into individual identifiers.
func splitParamNames(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "'\"")
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
