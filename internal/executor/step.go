// SPDX-License-Identifier: Apache-2.0

// Package executor runs individual plan steps: either by writing a
// preflight-supplied artifact directly or by spawning the chosen agent and
// classifying its outcome.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/auditor-sh/auditor/internal/core/agent"
	"github.com/auditor-sh/auditor/internal/core/models"
)

// ReportRuleName is the rule that denotes the terminal aggregation step.
const ReportRuleName = "audit_report"

// StepExecutor runs single execution steps against a frozen RunConfig.
type StepExecutor struct {
	config    *models.RunConfig
	invoker   Invoker
	preflight *models.PreflightResult
}

// NewStepExecutor creates a step executor for one run.
func NewStepExecutor(config *models.RunConfig, invoker Invoker, preflight *models.PreflightResult) *StepExecutor {
	return &StepExecutor{
		config:    config,
		invoker:   invoker,
		preflight: preflight,
	}
}

// ArtifactPath returns the artifact file a step owns. Each step owns a
// distinct path by construction; no two steps ever collide.
func (e *StepExecutor) ArtifactPath(step models.ExecutionStep) string {
	return filepath.Join(e.config.ArtifactsDir, fmt.Sprintf("step_%02d_%s.md", step.Index, step.RuleName))
}

// ExecuteStep runs one step and returns its result. The result is recorded
// exactly once per step regardless of outcome.
func (e *StepExecutor) ExecuteStep(ctx context.Context, step models.ExecutionStep) models.StepResult {
	start := time.Now()

	// Preflight-substituted path: the artifact already exists as text.
	if text, ok := e.preflight.Artifact(step.RuleName); ok {
		result := models.StepResult{
			Step:         step,
			ArtifactPath: e.ArtifactPath(step),
			Preflight:    true,
		}

		if err := os.WriteFile(result.ArtifactPath, []byte(text), 0o644); err != nil {
			result.Error = fmt.Sprintf("error writing preflight artifact: %v", err)
		} else {
			result.Success = true
		}

		result.Duration = time.Since(start)
		return result
	}

	var result models.StepResult
	if step.RuleName == ReportRuleName {
		result = e.executeReportStep(ctx, step)
	} else {
		result = e.executeStandardStep(ctx, step)
	}

	result.Duration = time.Since(start)
	return result
}

// executeStandardStep verifies the rule file, then asks the agent to apply
// it and write findings to the step's artifact path.
func (e *StepExecutor) executeStandardStep(ctx context.Context, step models.ExecutionStep) models.StepResult {
	result := models.StepResult{
		Step:         step,
		ArtifactPath: e.ArtifactPath(step),
	}

	rulePath := filepath.Join(e.config.RuleBaseDir, step.RuleName+agent.Agent(e.config.Agent).RuleExtension())
	if _, err := os.Stat(rulePath); err != nil {
		result.Error = fmt.Sprintf("rule file '%s' not found; was the rule set installed for agent '%s'?", rulePath, e.config.Agent)
		return result
	}

	prompt := buildStepPrompt(rulePath, result.ArtifactPath, e.config.ProjectDir)

	e.invokeWithFallback(ctx, prompt, &result, func() bool {
		_, err := os.Stat(result.ArtifactPath)
		return err == nil
	})
	return result
}

// executeReportStep asks the agent to aggregate every prior artifact plus
// the report template into the final report file.
func (e *StepExecutor) executeReportStep(ctx context.Context, step models.ExecutionStep) models.StepResult {
	result := models.StepResult{
		Step:         step,
		ArtifactPath: e.config.ReportPath,
	}

	prompt := buildReportPrompt(e.config.ArtifactsDir, e.config.TemplatePath, e.config.ReportPath)

	e.invokeWithFallback(ctx, prompt, &result, func() bool {
		_, err := os.Stat(e.config.ReportPath)
		return err == nil
	})
	return result
}

// invokeWithFallback runs the agent once and, for quota-classified
// failures with a distinct configured fallback model, exactly once more.
func (e *StepExecutor) invokeWithFallback(ctx context.Context, prompt string, result *models.StepResult, produced func() bool) {
	ok, kind := e.invokeOnce(ctx, prompt, e.config.Model, result, produced)
	if ok {
		return
	}

	fallback := e.config.FallbackModel
	if fallback == "" || fallback == e.config.Model {
		return
	}
	if !kind.Retryable() {
		return
	}

	fmt.Printf("  Retrying with fallback model '%s'...\n", fallback)
	e.invokeOnce(ctx, prompt, fallback, result, produced)
}

// invokeOnce spawns the agent and fills in the result. Success requires a
// zero exit status AND the expected output file existing afterward.
func (e *StepExecutor) invokeOnce(ctx context.Context, prompt, model string, result *models.StepResult, produced func() bool) (bool, FailureKind) {
	invokeResult, err := e.invoker.Invoke(ctx, prompt, model)
	if invokeResult == nil {
		result.Success = false
		result.Error = fmt.Sprintf("error starting agent process: %v", err)
		return false, FailureGeneric
	}

	// Usage reporting is best-effort and must never fail a step.
	result.Usage = ParseUsage(e.invoker.Agent(), invokeResult.Stdout)

	if invokeResult.ExitCode != 0 {
		kind := Classify(invokeResult.Stdout + invokeResult.Stderr)
		result.Success = false
		result.Error = kind.Remediation(model, invokeResult.ExitCode)
		return false, kind
	}

	if !produced() {
		result.Success = false
		result.Error = "agent exited successfully but the artifact was not created"
		return false, FailureGeneric
	}

	result.Success = true
	result.Error = ""
	return true, FailureGeneric
}

// buildStepPrompt instructs the agent to read one rule file and write its
// findings to the step's artifact path.
func buildStepPrompt(rulePath, artifactPath, projectDir string) string {
	return fmt.Sprintf(
		"Read the audit rule at '%s' and apply it to the project rooted at '%s'. "+
			"Write your findings as markdown to '%s'. "+
			"Create the file even if there are no findings.",
		rulePath, projectDir, artifactPath)
}

// buildReportPrompt instructs the agent to aggregate all artifacts into the
// final report.
func buildReportPrompt(artifactsDir, templatePath, reportPath string) string {
	return fmt.Sprintf(
		"Read every step artifact in '%s' and the report template at '%s'. "+
			"Aggregate the findings into a final report following the template structure "+
			"and write it to '%s'.",
		artifactsDir, templatePath, reportPath)
}
