// SPDX-License-Identifier: Apache-2.0

// Package agent knows which external AI CLIs the engine can drive, how to
// detect them on the host, and where each one expects its installed rule and
// template files to live.
package agent

import "fmt"

// Agent identifies one external command-line agent.
type Agent string

const (
	Claude Agent = "claude"
	Cursor Agent = "cursor"
	Gemini Agent = "gemini"
)

// DetectionOrder is the fixed priority used for auto-detection.
var DetectionOrder = []Agent{Claude, Gemini, Cursor}

// definition holds the static per-agent contract: the binary probed on PATH,
// the extension rule/template files carry, the install root layout, and the
// model identifiers accepted for that agent (default first).
type definition struct {
	Binary         string
	RuleExtension  string
	InstallRoot    []string // path elements under the project root
	Models         []string
	InstallCommand string
}

var definitions = map[Agent]definition{
	Claude: {
		Binary:         "claude",
		RuleExtension:  ".md",
		InstallRoot:    []string{".claude", "skills"},
		Models:         []string{"claude-sonnet-4-5", "claude-opus-4-1", "claude-haiku-4-5"},
		InstallCommand: "audit-bundles install --agent claude",
	},
	Cursor: {
		Binary:         "cursor-agent",
		RuleExtension:  ".mdc",
		InstallRoot:    []string{".cursor", "rules"},
		Models:         []string{"auto", "gpt-5", "sonnet-4.5"},
		InstallCommand: "audit-bundles install --agent cursor",
	},
	Gemini: {
		Binary:         "gemini",
		RuleExtension:  ".toml",
		InstallRoot:    []string{".gemini", "extensions"},
		Models:         []string{"gemini-2.5-pro", "gemini-2.5-flash"},
		InstallCommand: "audit-bundles install --agent gemini",
	},
}

// All returns every known agent in detection order.
func All() []Agent {
	agents := make([]Agent, len(DetectionOrder))
	copy(agents, DetectionOrder)
	return agents
}

// ParseAgent converts a user-supplied name into an Agent.
func ParseAgent(name string) (Agent, error) {
	a := Agent(name)
	if _, ok := definitions[a]; !ok {
		return "", fmt.Errorf("unknown agent '%s' (known agents: claude, cursor, gemini)", name)
	}
	return a, nil
}

// Binary returns the executable name probed during detection.
func (a Agent) Binary() string {
	return definitions[a].Binary
}

// RuleExtension returns the file extension used for this agent's installed
// rules and artifacts.
func (a Agent) RuleExtension() string {
	return definitions[a].RuleExtension
}

// Models returns the valid model identifiers for this agent, default first.
func (a Agent) Models() []string {
	models := definitions[a].Models
	out := make([]string, len(models))
	copy(out, models)
	return out
}

// DefaultModel returns the agent's designated default model.
func (a Agent) DefaultModel() string {
	return definitions[a].Models[0]
}

// ValidModel reports whether model is in the agent's known model list.
func (a Agent) ValidModel(model string) bool {
	for _, m := range definitions[a].Models {
		if m == model {
			return true
		}
	}
	return false
}

// InstallCommand returns the remediation command suggested when the agent's
// rule files are missing.
func (a Agent) InstallCommand() string {
	return definitions[a].InstallCommand
}
