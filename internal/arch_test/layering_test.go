package arch_test

import (
	"path/filepath"
	"testing"
)

// layers places each internal package in the dependency order. A package may
// import packages of its own layer or below, never above.
var layers = map[string]int{
	"dive":      0,
	"telemetry": 0,

	"planner": 1,

	"config":   2,
	"deco":     2,
	"logbook":  2,
	"planfile": 2,
	"render":   2,

	"ui": 3,

	"tui": 4,
}

// TestDependencyLayering verifies that no internal package imports a package
// from a higher layer.
func TestDependencyLayering(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		importer, ok := layers[pkg]
		if !ok {
			continue
		}
		for _, imp := range importsOf(t, filepath.Join(dir, pkg)) {
			if imported, ok := layers[imp]; ok && imported > importer {
				t.Errorf("layer violation: %s (layer %d) imports %s (layer %d)", pkg, importer, imp, imported)
			}
		}
	}
}

// TestNoUnknownPackages forces new internal packages into the layers map.
func TestNoUnknownPackages(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		if _, ok := layers[pkg]; !ok {
			t.Errorf("package %s has no layer assignment; add it to the layers map", pkg)
		}
	}
}

// TestPlannerHasNoBackends keeps the planner core free of the engine, the
// store and any presentation package; those plug in through its interfaces.
func TestPlannerHasNoBackends(t *testing.T) {
	t.Parallel()

	for _, imp := range importsOf(t, filepath.Join(internalDirPath(t), "planner")) {
		if imp != "dive" && imp != "telemetry" {
			t.Errorf("planner imports %s; only dive and telemetry are allowed", imp)
		}
	}
}
