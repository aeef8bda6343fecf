// SPDX-License-Identifier: Apache-2.0

// Package preflight runs the deterministic, non-AI part of an audit once per
// run: toolchain checks, dependency installation, tests with coverage. The
// rendered artifacts substitute for the matching agent steps, so mechanical
// work is done locally instead of being re-derived inside an agent prompt.
package preflight

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/auditor-sh/auditor/internal/core/models"
)

// Procedure is one technology's preflight implementation.
type Procedure interface {
	// Prefix is the technology prefix this procedure serves.
	Prefix() string

	// Run executes all phases and returns artifact text keyed by rule name
	// (<prefix>_<phase>). Individual tool failures are reported inside the
	// artifacts, never as errors.
	Run(ctx context.Context, projectDir string, verbose bool) map[string]string
}

// Registry maps technology prefixes to procedures. Unknown prefixes produce
// an empty result, which means every step falls through to agent execution.
type Registry struct {
	procedures map[string]Procedure
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{procedures: make(map[string]Procedure)}
}

// NewDefaultRegistry creates a registry with all built-in procedures.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&flutterProcedure{})
	r.Register(&reactProcedure{})
	return r
}

// Register adds a procedure, replacing any previous one for its prefix.
func (r *Registry) Register(p Procedure) {
	r.procedures[p.Prefix()] = p
}

// Prefixes lists registered prefixes in sorted order.
func (r *Registry) Prefixes() []string {
	out := make([]string, 0, len(r.procedures))
	for prefix := range r.procedures {
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out
}

// Run dispatches on the technology prefix and builds the preflight result
// for one run.
func (r *Registry) Run(ctx context.Context, prefix, projectDir string, verbose bool) *models.PreflightResult {
	procedure, ok := r.procedures[prefix]
	if !ok {
		return &models.PreflightResult{Artifacts: map[string]string{}}
	}

	return &models.PreflightResult{
		Artifacts: procedure.Run(ctx, projectDir, verbose),
	}
}

// childProject is a nested project discovered inside a monorepo.
type childProject struct {
	Label string // "<parent>/<child>"
	Dir   string
}

// monorepoParents is the fixed set of directory names scanned for nested
// projects.
var monorepoParents = []string{"apps", "packages", "modules"}

// discoverChildren finds nested projects by looking for the technology's
// manifest file in children of the well-known parent directories.
func discoverChildren(projectDir, manifest string) []childProject {
	var children []childProject

	for _, parent := range monorepoParents {
		parentDir := filepath.Join(projectDir, parent)
		entries, err := os.ReadDir(parentDir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			childDir := filepath.Join(parentDir, entry.Name())
			if _, err := os.Stat(filepath.Join(childDir, manifest)); err == nil {
				children = append(children, childProject{
					Label: parent + "/" + entry.Name(),
					Dir:   childDir,
				})
			}
		}
	}

	return children
}
