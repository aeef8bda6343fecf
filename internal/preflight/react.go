// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"context"
	"os"
	"path/filepath"
)

const reactManifest = "package.json"

// reactProcedure runs preflight for React projects: node toolchain checks,
// npm installation, and jest tests with lcov coverage.
type reactProcedure struct{}

func (r *reactProcedure) Prefix() string { return "react" }

func (r *reactProcedure) Run(ctx context.Context, projectDir string, verbose bool) map[string]string {
	children := discoverChildren(projectDir, reactManifest)

	toolchain := newPhaseReport("Node Toolchain Check")
	r.toolchainPhase(ctx, toolchain, projectDir)

	dependencies := newPhaseReport("Node Dependency Installation")
	r.dependenciesPhase(ctx, dependencies, projectDir, "", verbose)
	for _, child := range children {
		dependencies.section(child.Label)
		r.dependenciesPhase(ctx, dependencies, child.Dir, child.Label, verbose)
	}

	tests := newPhaseReport("React Tests and Coverage")
	r.testsPhase(ctx, tests, projectDir, "", verbose)
	for _, child := range children {
		tests.section(child.Label)
		r.testsPhase(ctx, tests, child.Dir, child.Label, verbose)
	}

	return map[string]string{
		"react_toolchain":    toolchain.render(),
		"react_dependencies": dependencies.render(),
		"react_tests":        tests.render(),
	}
}

func (r *reactProcedure) toolchainPhase(ctx context.Context, report *phaseReport, dir string) {
	if version, ok := toolVersion(ctx, dir, "node", "--version"); ok {
		report.pass("node %s", version)
	} else {
		report.fail("node binary not found on PATH")
	}

	if version, ok := toolVersion(ctx, dir, "npm", "--version"); ok {
		report.pass("npm %s", version)
	} else {
		report.fail("npm binary not found on PATH")
	}

	// Version alignment against a pinned node version.
	if _, err := os.Stat(filepath.Join(dir, ".nvmrc")); err == nil {
		report.note("project pins its node version via .nvmrc")
		if _, err := runTool(ctx, dir, false, "bash", "-lc", "nvm use"); err != nil {
			report.note("nvm use did not complete; the pinned version may be inactive")
		} else {
			report.pass("nvm use aligned the pinned node version")
		}
	}
}

func (r *reactProcedure) dependenciesPhase(ctx context.Context, report *phaseReport, dir, label string, verbose bool) {
	if _, err := os.Stat(filepath.Join(dir, reactManifest)); err != nil {
		report.fail("no %s found in %s", reactManifest, displayLabel(label))
		return
	}

	// npm ci needs a lockfile; fall back to npm install without one.
	installArgs := []string{"ci"}
	if _, err := os.Stat(filepath.Join(dir, "package-lock.json")); err != nil {
		installArgs = []string{"install"}
	}

	if _, err := runTool(ctx, dir, verbose, "npm", installArgs...); err != nil {
		report.fail("npm %s failed in %s", installArgs[0], displayLabel(label))
		return
	}
	report.pass("npm %s succeeded in %s", installArgs[0], displayLabel(label))
}

func (r *reactProcedure) testsPhase(ctx context.Context, report *phaseReport, dir, label string, verbose bool) {
	result, err := runTool(ctx, dir, verbose, "npm", "test", "--", "--coverage", "--watchAll=false")

	if result != nil {
		if summary, ok := ParseJestTestOutput(result.Combined()); ok {
			if summary.Failed > 0 {
				report.fail("tests: %d total, %d passed, %d failed in %s",
					summary.Total, summary.Passed, summary.Failed, displayLabel(label))
			} else {
				report.pass("tests: %d total, %d passed in %s",
					summary.Total, summary.Passed, displayLabel(label))
			}
		} else if err != nil {
			report.fail("test run failed and produced no summary in %s", displayLabel(label))
		}
	} else if err != nil {
		report.fail("could not start npm test: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "coverage", "lcov.info"))
	if err != nil {
		report.note("no coverage data file produced in %s", displayLabel(label))
		return
	}

	stats := ParseLCOV(string(data))
	report.pass("coverage: %.1f%% (%d/%d lines across %d files)",
		stats.Percent(), stats.CoveredLines, stats.TotalLines, stats.FileCount)
	if stats.ZeroCoverageFiles > 0 {
		report.note("%d files have zero coverage", stats.ZeroCoverageFiles)
	}
}
