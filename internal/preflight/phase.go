// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/auditor-sh/auditor/internal/executor"
)

// phaseReport accumulates per-check lines for one phase and renders the
// final markdown artifact.
type phaseReport struct {
	title  string
	lines  []string
	failed bool
}

func newPhaseReport(title string) *phaseReport {
	return &phaseReport{title: title}
}

// pass records a successful sub-check.
func (p *phaseReport) pass(format string, args ...interface{}) {
	p.lines = append(p.lines, "- [PASS] "+fmt.Sprintf(format, args...))
}

// fail records a failed sub-check and marks the phase failed.
func (p *phaseReport) fail(format string, args ...interface{}) {
	p.lines = append(p.lines, "- [FAIL] "+fmt.Sprintf(format, args...))
	p.failed = true
}

// note records an informational line without affecting phase status.
func (p *phaseReport) note(format string, args ...interface{}) {
	p.lines = append(p.lines, "- "+fmt.Sprintf(format, args...))
}

// section inserts a subsection header, used for monorepo child projects.
func (p *phaseReport) section(label string) {
	p.lines = append(p.lines, "", "### "+label, "")
}

// render produces the markdown artifact for this phase.
func (p *phaseReport) render() string {
	status := "PASSED"
	if p.failed {
		status = "FAILED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.title)
	fmt.Fprintf(&b, "**Status:** %s\n\n", status)
	for _, line := range p.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// runTool executes one external tool invocation in dir. Failures are
// returned for the caller to record; they never abort a phase.
func runTool(ctx context.Context, dir string, verbose bool, name string, args ...string) (*executor.CommandResult, error) {
	return executor.NewCommandExecutor(name, args).
		WithWorkingDir(dir).
		WithVerbose(verbose).
		Execute(ctx)
}

// toolVersion probes a tool's --version output, returning the first line.
func toolVersion(ctx context.Context, dir string, name string, args ...string) (string, bool) {
	result, err := runTool(ctx, dir, false, name, args...)
	if err != nil {
		return "", false
	}

	line := strings.TrimSpace(string(result.Stdout))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return line, true
}
