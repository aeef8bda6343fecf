// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// Bundle describes one audit type: its plan document, rule set, and report
// template. Bundles come from the static registry and are never mutated.
type Bundle struct {
	Name        string `json:"name" yaml:"name"`
	Code        string `json:"code" yaml:"code"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Prefix      string `json:"prefix" yaml:"prefix"`
	PlanPath    string `json:"plan_path" yaml:"plan_path"`
	RulesDir    string `json:"rules_dir" yaml:"rules_dir"`
	Template    string `json:"template" yaml:"template"`

	// Chain describes an optional follow-on bundle offered after a run.
	Chain *ChainRule `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// ChainRule gates the offer of a follow-on bundle on a CEL condition
// evaluated against the run summary.
type ChainRule struct {
	Condition string `json:"condition" yaml:"condition"`
	Next      string `json:"next" yaml:"next"`
}

// ExecutionStep is one ordered unit of plan execution.
type ExecutionStep struct {
	Index       int    `json:"index"`
	RuleName    string `json:"rule_name"`
	IsMandatory bool   `json:"is_mandatory"`
	Annotation  string `json:"annotation,omitempty"`
}

// ExecutionPlan is the full ordered step sequence for one run.
type ExecutionPlan struct {
	Steps []ExecutionStep `json:"steps"`
}

// RunConfig is the frozen configuration for one execution. It is built once
// by the orchestrator and read-only afterward; every step of a run sees the
// same values.
type RunConfig struct {
	Bundle        Bundle
	Agent         string
	Model         string
	FallbackModel string
	Plan          ExecutionPlan
	ProjectDir    string
	RuleBaseDir   string
	TemplatePath  string
	ArtifactsDir  string
	ReportPath    string
	Verbose       bool
}

// TokenUsage holds per-step token accounting parsed from agent output.
// It is absent (nil) when the agent does not expose usage data.
type TokenUsage struct {
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens"`
	CostUSD             float64 `json:"cost_usd,omitempty"`
	HasCost             bool    `json:"-"`
}

// TotalInputTokens is the effective input size: fresh input plus both cache
// directions.
func (u *TokenUsage) TotalInputTokens() int {
	return u.InputTokens + u.CacheReadTokens + u.CacheCreationTokens
}

// Add accumulates another usage record into this one.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	if other.HasCost {
		u.CostUSD += other.CostUSD
		u.HasCost = true
	}
}

// StepResult is the outcome of running one step. Results are append-only;
// they drive both live progress and the final summary.
type StepResult struct {
	Step         ExecutionStep `json:"step"`
	Success      bool          `json:"success"`
	ArtifactPath string        `json:"artifact_path"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
	Usage        *TokenUsage   `json:"usage,omitempty"`
	Preflight    bool          `json:"preflight"`
}

// PreflightResult maps rule names to pre-rendered artifact text. A rule name
// present here is treated by the executor as already handled.
type PreflightResult struct {
	Artifacts map[string]string
}

// HasArtifacts reports whether any step was pre-rendered.
func (p *PreflightResult) HasArtifacts() bool {
	return p != nil && len(p.Artifacts) > 0
}

// Artifact returns the pre-rendered text for a rule, if any.
func (p *PreflightResult) Artifact(ruleName string) (string, bool) {
	if p == nil {
		return "", false
	}
	text, ok := p.Artifacts[ruleName]
	return text, ok
}
