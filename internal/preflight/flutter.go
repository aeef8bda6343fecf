// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const flutterManifest = "pubspec.yaml"

// flutterProcedure runs preflight for Flutter projects: toolchain and
// version-manager checks, dependency installation, and tests with lcov
// coverage. Monorepo children found under the well-known parent directories
// get the same treatment with a "<parent>/<child>" label.
type flutterProcedure struct{}

func (f *flutterProcedure) Prefix() string { return "flutter" }

func (f *flutterProcedure) Run(ctx context.Context, projectDir string, verbose bool) map[string]string {
	children := discoverChildren(projectDir, flutterManifest)

	toolchain := newPhaseReport("Flutter Toolchain Check")
	f.toolchainPhase(ctx, toolchain, projectDir)

	dependencies := newPhaseReport("Flutter Dependency Installation")
	f.dependenciesPhase(ctx, dependencies, projectDir, "", verbose)
	for _, child := range children {
		dependencies.section(child.Label)
		f.dependenciesPhase(ctx, dependencies, child.Dir, child.Label, verbose)
	}

	tests := newPhaseReport("Flutter Tests and Coverage")
	f.testsPhase(ctx, tests, projectDir, "", verbose)
	for _, child := range children {
		tests.section(child.Label)
		f.testsPhase(ctx, tests, child.Dir, child.Label, verbose)
	}

	return map[string]string{
		"flutter_toolchain":    toolchain.render(),
		"flutter_dependencies": dependencies.render(),
		"flutter_tests":        tests.render(),
	}
}

// toolchainPhase detects the Flutter tooling and aligns the SDK version
// when the project pins one through fvm.
func (f *flutterProcedure) toolchainPhase(ctx context.Context, report *phaseReport, dir string) {
	usesFvm := false
	if _, err := os.Stat(filepath.Join(dir, ".fvmrc")); err == nil {
		usesFvm = true
		report.note("project pins its Flutter SDK via .fvmrc")
	}

	if version, ok := toolVersion(ctx, dir, "fvm", "--version"); ok {
		report.pass("fvm %s", version)
	} else if usesFvm {
		report.fail("fvm not installed but the project pins an SDK version")
	} else {
		report.note("fvm not installed (not required)")
	}

	if version, ok := toolVersion(ctx, dir, "flutter", "--version"); ok {
		report.pass("flutter: %s", version)
	} else {
		report.fail("flutter binary not found on PATH")
	}

	if version, ok := toolVersion(ctx, dir, "dart", "--version"); ok {
		report.pass("dart: %s", version)
	} else {
		report.fail("dart binary not found on PATH")
	}

	// Version alignment: make the pinned SDK active before anything else
	// touches the project.
	if usesFvm {
		if _, err := runTool(ctx, dir, false, "fvm", "use"); err != nil {
			report.fail("fvm use did not complete; SDK version may be misaligned")
		} else {
			report.pass("fvm use aligned the pinned SDK version")
		}
	}
}

// dependenciesPhase installs packages for one project directory.
func (f *flutterProcedure) dependenciesPhase(ctx context.Context, report *phaseReport, dir, label string, verbose bool) {
	if _, err := os.Stat(filepath.Join(dir, flutterManifest)); err != nil {
		report.fail("no %s found in %s", flutterManifest, displayLabel(label))
		return
	}

	if _, err := runTool(ctx, dir, verbose, "flutter", "pub", "get"); err != nil {
		report.fail("flutter pub get failed in %s", displayLabel(label))
		return
	}
	report.pass("flutter pub get succeeded in %s", displayLabel(label))
}

// testsPhase runs the test suite with coverage and parses both the compact
// summary and the lcov data file.
func (f *flutterProcedure) testsPhase(ctx context.Context, report *phaseReport, dir, label string, verbose bool) {
	if _, err := os.Stat(filepath.Join(dir, "test")); err != nil {
		report.note("no test directory in %s", displayLabel(label))
		return
	}

	result, err := runTool(ctx, dir, verbose, "flutter", "test", "--coverage", "-r", "compact")

	if result != nil {
		if summary, ok := ParseFlutterTestOutput(result.Combined()); ok {
			if summary.Failed > 0 {
				report.fail("tests: %d total, %d passed, %d failed", summary.Total, summary.Passed, summary.Failed)
				for _, name := range summary.FailingTests {
					report.note("failing: %s", name)
				}
			} else {
				report.pass("tests: %d total, %d passed", summary.Total, summary.Passed)
			}
		} else if err != nil {
			report.fail("test run failed and produced no summary")
		}
	} else if err != nil {
		report.fail("could not start flutter test: %v", err)
	}

	f.coverageCheck(report, dir)
}

// coverageCheck reads the lcov data file produced by the test run.
func (f *flutterProcedure) coverageCheck(report *phaseReport, dir string) {
	data, err := os.ReadFile(filepath.Join(dir, "coverage", "lcov.info"))
	if err != nil {
		report.note("no coverage data file produced")
		return
	}

	stats := ParseLCOV(string(data))
	report.pass("coverage: %.1f%% (%d/%d lines across %d files)",
		stats.Percent(), stats.CoveredLines, stats.TotalLines, stats.FileCount)
	if stats.ZeroCoverageFiles > 0 {
		report.note("%d files have zero coverage", stats.ZeroCoverageFiles)
	}
}

func displayLabel(label string) string {
	if strings.TrimSpace(label) == "" {
		return "project root"
	}
	return fmt.Sprintf("'%s'", label)
}
