package imports

// Well-known module names the rule set reasons about directly.
const (
	ModuleUnittest         = "unittest"
	ModuleFixtureFramework = "pytest"
)

// ApplyXUnitToFixturePolicy configures r for the XUNIT_TO_FIXTURE
// direction: remove unittest if no class remains extending it; add the
// fixture-framework import if any fixture, parametrize, or raises
// construct appears in the rewritten output.
func ApplyXUnitToFixturePolicy(r *Reconciler, anyClassStillExtendsUnittest, anyFixtureConstructAppears bool) {
	if !anyClassStillExtendsUnittest {
		r.MarkRemovable(ModuleUnittest)
	}
	if anyFixtureConstructAppears {
		r.Require(ModuleFixtureFramework)
	}
}

// ApplyFixtureToXUnitPolicy configures r for the FIXTURE_TO_XUNIT
// direction: always add unittest; keep the fixture-framework import only
// if some UNCONVERTIBLE annotation still references it.
func ApplyFixtureToXUnitPolicy(r *Reconciler, anyUnconvertibleReferencesFixtureFramework bool) {
	r.Require(ModuleUnittest)
	if anyUnconvertibleReferencesFixtureFramework {
		r.Require(ModuleFixtureFramework)
	} else {
		r.MarkRemovable(ModuleFixtureFramework)
	}
}
