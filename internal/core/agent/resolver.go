// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// LookPathFunc is the binary probe used during detection. Tests substitute
// it to simulate hosts with different agent sets.
type LookPathFunc func(file string) (string, error)

// Resolver detects installed agents and computes their file-layout
// contracts. The zero value is not usable; use NewResolver.
type Resolver struct {
	lookPath LookPathFunc
}

// NewResolver creates a resolver backed by the real executable search path.
func NewResolver() *Resolver {
	return &Resolver{lookPath: exec.LookPath}
}

// NewResolverWithLookPath creates a resolver with a custom binary probe.
func NewResolverWithLookPath(lookPath LookPathFunc) *Resolver {
	return &Resolver{lookPath: lookPath}
}

// Resolve auto-detects an agent by probing binaries in the fixed priority
// order. When preferred is non-empty only that agent is checked.
func (r *Resolver) Resolve(preferred Agent) (Agent, error) {
	if preferred != "" {
		if _, err := r.lookPath(preferred.Binary()); err != nil {
			return "", fmt.Errorf("agent '%s' not found: binary '%s' is not on PATH", preferred, preferred.Binary())
		}
		return preferred, nil
	}

	for _, a := range DetectionOrder {
		if _, err := r.lookPath(a.Binary()); err == nil {
			return a, nil
		}
	}

	return "", fmt.Errorf("no supported agent binary found on PATH (looked for: claude, gemini, cursor-agent)")
}

// DetectAll returns every agent whose binary is present, in priority order.
// Used for interactive disambiguation.
func (r *Resolver) DetectAll() []Agent {
	var present []Agent
	for _, a := range DetectionOrder {
		if _, err := r.lookPath(a.Binary()); err == nil {
			present = append(present, a)
		}
	}
	return present
}

// RuleBasePath computes where the agent's installed rule files for a bundle
// live under the project root. Each agent has a structurally different
// install root, so the mapping is table-driven rather than inferred.
func (r *Resolver) RuleBasePath(a Agent, projectDir, bundleName, planSubDir string) string {
	parts := append([]string{projectDir}, definitions[a].InstallRoot...)
	parts = append(parts, bundleName, planSubDir)
	return filepath.Join(parts...)
}

// TemplatePath computes the on-disk location of the bundle's report
// template for the given agent.
func (r *Resolver) TemplatePath(a Agent, projectDir, bundleName, planSubDir, templateFile string) string {
	return filepath.Join(r.RuleBasePath(a, projectDir, bundleName, planSubDir), templateFile)
}

// VerifyInstallation checks that the rule base exists and that the first
// expected rule file is present. Failures carry the remediation command
// rather than a raw I/O error.
func (r *Resolver) VerifyInstallation(a Agent, ruleBasePath string, ruleNames []string) error {
	info, err := os.Stat(ruleBasePath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("rule directory '%s' not found; run '%s' to install the rule set", ruleBasePath, a.InstallCommand())
	}

	if len(ruleNames) == 0 {
		return nil
	}

	firstRule := filepath.Join(ruleBasePath, ruleNames[0]+a.RuleExtension())
	if _, err := os.Stat(firstRule); err != nil {
		return fmt.Errorf("rule file '%s' not found; run '%s' to install the rule set", firstRule, a.InstallCommand())
	}

	return nil
}
