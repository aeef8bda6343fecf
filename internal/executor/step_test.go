// SPDX-License-Identifier: Apache-2.0

package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/auditor-sh/auditor/internal/core/models"
	"github.com/auditor-sh/auditor/internal/executor"
	"github.com/auditor-sh/auditor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRunConfig builds a RunConfig over a temp project with an installed rule
// set for claude.
func newRunConfig(t *testing.T, ruleNames ...string) *models.RunConfig {
	t.Helper()

	projectDir := t.TempDir()
	ruleBase := filepath.Join(projectDir, ".claude", "skills", "flutter_health", "rules")
	require.NoError(t, os.MkdirAll(ruleBase, 0o755))

	for _, name := range ruleNames {
		require.NoError(t, os.WriteFile(filepath.Join(ruleBase, name+".md"), []byte("# rule\n"), 0o644))
	}

	artifactsDir := filepath.Join(projectDir, ".audit", "artifacts")
	require.NoError(t, os.MkdirAll(artifactsDir, 0o755))

	return &models.RunConfig{
		Bundle:        models.Bundle{Name: "flutter_health", Prefix: "flutter"},
		Agent:         "claude",
		Model:         "claude-sonnet-4-5",
		FallbackModel: "claude-haiku-4-5",
		ProjectDir:    projectDir,
		RuleBaseDir:   ruleBase,
		TemplatePath:  filepath.Join(ruleBase, "report_template.md"),
		ArtifactsDir:  artifactsDir,
		ReportPath:    filepath.Join(projectDir, ".audit", "AUDIT_REPORT.md"),
	}
}

func step(index int, rule string, mandatory bool) models.ExecutionStep {
	return models.ExecutionStep{Index: index, RuleName: rule, IsMandatory: mandatory}
}

func TestPreflightSubstitutedStep(t *testing.T) {
	config := newRunConfig(t)
	preflight := &models.PreflightResult{
		Artifacts: map[string]string{"flutter_tests": "# Tests\n**Status:** PASSED\n"},
	}

	invoker := &testutil.ScriptedInvoker{}
	exec := executor.NewStepExecutor(config, invoker, preflight)

	result := exec.ExecuteStep(context.Background(), step(3, "flutter_tests", false))

	assert.True(t, result.Success)
	assert.True(t, result.Preflight)
	assert.Equal(t, 0, invoker.Calls(), "preflight steps must not invoke the agent")

	data, err := os.ReadFile(filepath.Join(config.ArtifactsDir, "step_03_flutter_tests.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "PASSED")
}

func TestStandardStepMissingRuleFailsFast(t *testing.T) {
	config := newRunConfig(t) // no rules installed
	invoker := &testutil.ScriptedInvoker{}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(1, "missing_rule", true))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "missing_rule")
	assert.Equal(t, 0, invoker.Calls(), "agent must not be invoked when the rule file is absent")
}

func TestStandardStepSuccess(t *testing.T) {
	config := newRunConfig(t, "arch_review")

	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{{ExitCode: 0, Stdout: `{"usage":{"input_tokens":10,"output_tokens":5}}`}},
	}
	// The agent is expected to create the artifact as a side effect.
	invoker.OnInvoke = func(int) {
		artifact := filepath.Join(config.ArtifactsDir, "step_01_arch_review.md")
		require.NoError(t, os.WriteFile(artifact, []byte("findings"), 0o644))
	}

	exec := executor.NewStepExecutor(config, invoker, nil)
	result := exec.ExecuteStep(context.Background(), step(1, "arch_review", false))

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	require.NotNil(t, result.Usage)
	assert.Equal(t, 10, result.Usage.InputTokens)
	assert.Equal(t, 1, invoker.Calls())
	assert.Contains(t, invoker.Prompts[0], "arch_review.md", "prompt should reference the rule file")
}

func TestZeroExitWithoutArtifactIsFailure(t *testing.T) {
	config := newRunConfig(t, "arch_review")
	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{{ExitCode: 0}},
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(1, "arch_review", false))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "artifact was not created")
}

func TestQuotaFailureRetriesWithFallbackExactlyOnce(t *testing.T) {
	config := newRunConfig(t, "arch_review")
	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{
			{ExitCode: 1, Stderr: "429 rate limit exceeded"},
			{ExitCode: 1, Stderr: "429 rate limit exceeded"},
		},
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(1, "arch_review", false))

	assert.False(t, result.Success, "step fails after the fallback also fails")
	assert.Equal(t, 2, invoker.Calls(), "exactly one retry, no third attempt")
	assert.Equal(t, []string{"claude-sonnet-4-5", "claude-haiku-4-5"}, invoker.Models)
}

func TestQuotaRetrySucceedsOnFallback(t *testing.T) {
	config := newRunConfig(t, "arch_review")
	artifact := filepath.Join(config.ArtifactsDir, "step_01_arch_review.md")

	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{
			{ExitCode: 1, Stderr: "RESOURCE_EXHAUSTED"},
			{ExitCode: 0},
		},
	}
	invoker.OnInvoke = func(call int) {
		if call == 1 {
			require.NoError(t, os.WriteFile(artifact, []byte("findings"), 0o644))
		}
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(1, "arch_review", false))

	assert.True(t, result.Success)
	assert.Equal(t, 2, invoker.Calls())
}

func TestModelNotFoundDoesNotRetry(t *testing.T) {
	config := newRunConfig(t, "arch_review")
	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{{ExitCode: 1, Stderr: "Error: model not found"}},
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(1, "arch_review", false))

	assert.False(t, result.Success)
	assert.Equal(t, 1, invoker.Calls(), "a missing model is a configuration error, not a retry trigger")
	assert.Contains(t, result.Error, "not available")
}

func TestNoRetryWhenFallbackMatchesPrimary(t *testing.T) {
	config := newRunConfig(t, "arch_review")
	config.FallbackModel = config.Model

	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{{ExitCode: 1, Stderr: "quota exceeded"}},
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(1, "arch_review", false))

	assert.False(t, result.Success)
	assert.Equal(t, 1, invoker.Calls())
}

func TestReportStep(t *testing.T) {
	config := newRunConfig(t)

	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{{ExitCode: 0}},
	}
	invoker.OnInvoke = func(int) {
		require.NoError(t, os.WriteFile(config.ReportPath, []byte("# Report"), 0o644))
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(9, executor.ReportRuleName, true))

	assert.True(t, result.Success)
	assert.Equal(t, config.ReportPath, result.ArtifactPath)
	assert.Contains(t, invoker.Prompts[0], config.TemplatePath, "report prompt should reference the template")
}

func TestReportStepWithoutReportFileFails(t *testing.T) {
	config := newRunConfig(t)
	invoker := &testutil.ScriptedInvoker{
		Results: []*executor.InvokeResult{{ExitCode: 0}},
	}
	exec := executor.NewStepExecutor(config, invoker, nil)

	result := exec.ExecuteStep(context.Background(), step(9, executor.ReportRuleName, true))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "artifact was not created")
}

func TestArtifactPathPartitioning(t *testing.T) {
	config := newRunConfig(t)
	exec := executor.NewStepExecutor(config, &testutil.ScriptedInvoker{}, nil)

	seen := make(map[string]bool)
	for i := 1; i <= 12; i++ {
		path := exec.ArtifactPath(step(i, "rule", false))
		assert.False(t, seen[path], "artifact paths must be distinct per step")
		seen[path] = true
	}

	assert.Contains(t, exec.ArtifactPath(step(7, "deps_check", false)), "step_07_deps_check.md")
}
