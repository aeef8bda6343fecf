// SPDX-License-Identifier: Apache-2.0

// Package orchestrator is the composition root of a run: it freezes the
// RunConfig, runs preflight once, drives the step executor across the plan
// in order, and aggregates the results.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/auditor-sh/auditor/internal/core/agent"
	"github.com/auditor-sh/auditor/internal/core/condition"
	"github.com/auditor-sh/auditor/internal/core/models"
	"github.com/auditor-sh/auditor/internal/core/plan"
	"github.com/auditor-sh/auditor/internal/core/registry"
	"github.com/auditor-sh/auditor/internal/executor"
	"github.com/auditor-sh/auditor/internal/preflight"
)

// RunOptions carries the user's choices for one run.
type RunOptions struct {
	BundleCode    string
	ProjectDir    string
	Agent         string // empty means auto-detect
	Model         string // empty means the agent's default
	FallbackModel string
	SkipPreflight bool
	AssumeYes     bool
	Verbose       bool
}

// RunSummary aggregates the outcome of one run.
type RunSummary struct {
	Bundle            models.Bundle
	Agent             agent.Agent
	Model             string
	Results           []models.StepResult
	Succeeded         int
	Failed            int
	Aborted           bool
	AbortedAt         string // rule name of the aborting step
	TotalDuration     time.Duration
	AgentDuration     time.Duration
	PreflightDuration time.Duration
	Usage             models.TokenUsage
	UsageSeen         bool
	ReportPath        string
}

// Orchestrator wires the core components together. All collaborators are
// injected so tests can substitute fixtures.
type Orchestrator struct {
	registry  *registry.Registry
	resolver  *agent.Resolver
	preflight *preflight.Registry

	// newInvoker builds the agent seam; replaced in tests.
	newInvoker func(a agent.Agent, projectDir string, verbose bool) executor.Invoker

	// confirm and selectOption are the interactive prompts; replaced in
	// tests and bypassed by AssumeYes.
	confirm      func(message string) bool
	selectOption func(message string, options []string) (string, error)
}

// New creates an orchestrator with the real agent invokers and survey
// prompts.
func New(reg *registry.Registry, resolver *agent.Resolver, pre *preflight.Registry) *Orchestrator {
	return &Orchestrator{
		registry:   reg,
		resolver:   resolver,
		preflight:  pre,
		newInvoker: executor.NewInvoker,
		confirm: func(message string) bool {
			answer := false
			if err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &answer); err != nil {
				return false
			}
			return answer
		},
		selectOption: func(message string, options []string) (string, error) {
			var answer string
			if err := survey.AskOne(&survey.Select{Message: message, Options: options}, &answer); err != nil {
				return "", err
			}
			return answer, nil
		},
	}
}

// WithInvokerFactory substitutes the agent invoker seam (tests).
func (o *Orchestrator) WithInvokerFactory(factory func(a agent.Agent, projectDir string, verbose bool) executor.Invoker) *Orchestrator {
	o.newInvoker = factory
	return o
}

// WithPrompts substitutes the interactive prompt functions (tests).
func (o *Orchestrator) WithPrompts(confirm func(string) bool, selectOption func(string, []string) (string, error)) *Orchestrator {
	o.confirm = confirm
	o.selectOption = selectOption
	return o
}

// Run executes one bundle end to end and returns its summary. The returned
// error covers pre-execution validation only; per-step failures are
// reported through the summary.
func (o *Orchestrator) Run(ctx context.Context, options RunOptions) (*RunSummary, error) {
	bundle, err := o.registry.Lookup(options.BundleCode)
	if err != nil {
		return nil, err
	}

	config, err := o.resolveConfig(bundle, options)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		Bundle:     bundle,
		Agent:      agent.Agent(config.Agent),
		Model:      config.Model,
		ReportPath: config.ReportPath,
	}

	if err := o.prepareRunDirs(config); err != nil {
		return nil, err
	}

	fmt.Printf("Running %s with agent '%s' (model %s), %d steps\n",
		bundle.DisplayName, config.Agent, config.Model, len(config.Plan.Steps))

	runStart := time.Now()

	// Preflight runs exactly once, before any step executes.
	preflightResult := &models.PreflightResult{}
	if !options.SkipPreflight {
		preflightStart := time.Now()
		preflightResult = o.preflight.Run(ctx, bundle.Prefix, config.ProjectDir, config.Verbose)
		summary.PreflightDuration = time.Since(preflightStart)

		if preflightResult.HasArtifacts() {
			fmt.Printf("Preflight prepared %d artifacts in %s\n",
				len(preflightResult.Artifacts), summary.PreflightDuration.Round(time.Millisecond))
		}
	}

	invoker := o.newInvoker(agent.Agent(config.Agent), config.ProjectDir, config.Verbose)
	stepExecutor := executor.NewStepExecutor(config, invoker, preflightResult)

	for _, step := range config.Plan.Steps {
		fmt.Printf("[%d/%d] %s... ", step.Index, len(config.Plan.Steps), step.RuleName)

		result := stepExecutor.ExecuteStep(ctx, step)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		if !result.Preflight {
			summary.AgentDuration += result.Duration
		}
		if result.Usage != nil {
			summary.Usage.Add(result.Usage)
			summary.UsageSeen = true
		}

		printStepOutcome(result)

		if !result.Success && step.IsMandatory {
			summary.Aborted = true
			summary.AbortedAt = step.RuleName
			break
		}
	}

	summary.TotalDuration = time.Since(runStart)
	o.printSummary(summary, len(config.Plan.Steps))

	if !summary.Aborted {
		o.offerChain(ctx, bundle, summary, options)
	}

	return summary, nil
}

// resolveConfig freezes the RunConfig for one execution.
func (o *Orchestrator) resolveConfig(bundle models.Bundle, options RunOptions) (*models.RunConfig, error) {
	projectDir := options.ProjectDir
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error resolving project directory: %w", err)
		}
	}
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project directory '%s' does not exist", projectDir)
	}

	chosenAgent, err := o.chooseAgent(options)
	if err != nil {
		return nil, err
	}

	model := options.Model
	if model == "" {
		model = chosenAgent.DefaultModel()
	} else if !chosenAgent.ValidModel(model) {
		return nil, fmt.Errorf("model '%s' is not valid for agent '%s' (valid: %v)", model, chosenAgent, chosenAgent.Models())
	}

	fallback := options.FallbackModel
	if fallback != "" && !chosenAgent.ValidModel(fallback) {
		return nil, fmt.Errorf("fallback model '%s' is not valid for agent '%s' (valid: %v)", fallback, chosenAgent, chosenAgent.Models())
	}
	if fallback == "" {
		fallback = defaultFallback(chosenAgent, model)
	}

	ruleBase := o.resolver.RuleBasePath(chosenAgent, projectDir, bundle.Name, bundle.RulesDir)
	planPath := o.resolver.RuleBasePath(chosenAgent, projectDir, bundle.Name, bundle.PlanPath)
	templatePath := o.resolver.TemplatePath(chosenAgent, projectDir, bundle.Name, bundle.RulesDir, bundle.Template)

	planText, err := os.ReadFile(planPath)
	if err != nil {
		return nil, fmt.Errorf("plan document '%s' not found; run '%s' to install the bundle", planPath, chosenAgent.InstallCommand())
	}

	steps := plan.Parse(string(planText))
	if len(steps) == 0 {
		return nil, fmt.Errorf("plan document '%s' contains no execution-order section", planPath)
	}

	// Preflight-substituted steps and the terminal report step have no
	// rule files, so they do not participate in installation checks.
	ruleNames := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.RuleName == executor.ReportRuleName || strings.HasPrefix(s.RuleName, bundle.Prefix+"_") {
			continue
		}
		ruleNames = append(ruleNames, s.RuleName)
	}
	if err := o.resolver.VerifyInstallation(chosenAgent, ruleBase, ruleNames); err != nil {
		return nil, err
	}

	auditDir := filepath.Join(projectDir, ".audit", bundle.Name)

	return &models.RunConfig{
		Bundle:        bundle,
		Agent:         string(chosenAgent),
		Model:         model,
		FallbackModel: fallback,
		Plan:          models.ExecutionPlan{Steps: steps},
		ProjectDir:    projectDir,
		RuleBaseDir:   ruleBase,
		TemplatePath:  templatePath,
		ArtifactsDir:  filepath.Join(auditDir, "artifacts"),
		ReportPath:    filepath.Join(auditDir, "AUDIT_REPORT.md"),
		Verbose:       options.Verbose,
	}, nil
}

// chooseAgent applies the explicit override, or auto-detects, prompting for
// disambiguation when several agents are present.
func (o *Orchestrator) chooseAgent(options RunOptions) (agent.Agent, error) {
	if options.Agent != "" {
		preferred, err := agent.ParseAgent(options.Agent)
		if err != nil {
			return "", err
		}
		return o.resolver.Resolve(preferred)
	}

	present := o.resolver.DetectAll()
	if len(present) > 1 && !options.AssumeYes {
		names := make([]string, len(present))
		for i, a := range present {
			names[i] = string(a)
		}
		chosen, err := o.selectOption("Several agents are installed. Which one should run the audit?", names)
		if err != nil {
			return "", fmt.Errorf("error selecting agent: %w", err)
		}
		return agent.ParseAgent(chosen)
	}

	return o.resolver.Resolve("")
}

// defaultFallback picks the cheapest distinct model as the implicit
// fallback for quota-classified failures.
func defaultFallback(a agent.Agent, model string) string {
	agentModels := a.Models()
	last := agentModels[len(agentModels)-1]
	if last == model {
		return ""
	}
	return last
}

// prepareRunDirs clears artifacts and report of any previous run for this
// bundle so that re-runs never accumulate stale files.
func (o *Orchestrator) prepareRunDirs(config *models.RunConfig) error {
	if err := os.RemoveAll(config.ArtifactsDir); err != nil {
		return fmt.Errorf("error clearing artifacts directory: %w", err)
	}
	if err := os.MkdirAll(config.ArtifactsDir, 0o755); err != nil {
		return fmt.Errorf("error creating artifacts directory: %w", err)
	}
	if err := os.Remove(config.ReportPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error clearing previous report: %w", err)
	}
	return nil
}

// printStepOutcome renders the live progress line tail for one result.
func printStepOutcome(result models.StepResult) {
	switch {
	case result.Success && result.Preflight:
		fmt.Printf("OK (preflight, %s)\n", result.Duration.Round(time.Millisecond))
	case result.Success:
		fmt.Printf("OK (%s)\n", result.Duration.Round(time.Millisecond))
	default:
		fmt.Printf("FAILED (%s)\n", result.Duration.Round(time.Millisecond))
		fmt.Printf("  %s\n", result.Error)
	}
}

// printSummary renders the final aggregate block.
func (o *Orchestrator) printSummary(summary *RunSummary, totalSteps int) {
	fmt.Println()

	if summary.Aborted {
		fmt.Printf("ABORTED at mandatory step '%s', %d/%d steps completed\n",
			summary.AbortedAt, len(summary.Results), totalSteps)
	} else if summary.Failed > 0 {
		fmt.Printf("Completed with warnings: %d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
		for _, result := range summary.Results {
			if !result.Success {
				fmt.Printf("  failed: %s\n", result.Step.RuleName)
			}
		}
	} else {
		fmt.Printf("Completed: %d/%d steps succeeded\n", summary.Succeeded, totalSteps)
	}

	fmt.Printf("Duration: %s total (%s agent, %s preflight)\n",
		summary.TotalDuration.Round(time.Millisecond),
		summary.AgentDuration.Round(time.Millisecond),
		summary.PreflightDuration.Round(time.Millisecond))

	if summary.UsageSeen {
		fmt.Printf("Tokens: %d input (%d cached), %d output\n",
			summary.Usage.TotalInputTokens(), summary.Usage.CacheReadTokens, summary.Usage.OutputTokens)
		if summary.Usage.HasCost {
			fmt.Printf("Cost: $%.4f\n", summary.Usage.CostUSD)
		}
	}

	if !summary.Aborted {
		fmt.Printf("Report: %s\n", summary.ReportPath)
	}
}

// offerChain evaluates the bundle's chain condition against the run summary
// and, when it holds, offers the follow-on bundle.
func (o *Orchestrator) offerChain(ctx context.Context, bundle models.Bundle, summary *RunSummary, options RunOptions) {
	if bundle.Chain == nil {
		return
	}

	evaluator, err := condition.NewEvaluator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: chain condition unavailable: %v\n", err)
		return
	}

	matched, err := evaluator.Evaluate(bundle.Chain.Condition, map[string]interface{}{
		"success":     summary.Failed == 0,
		"failed":      summary.Failed,
		"bundle_kind": bundleKind(bundle.Name),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error evaluating chain condition: %v\n", err)
		return
	}
	if !matched {
		return
	}

	next, err := o.registry.Lookup(bundle.Chain.Next)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}

	if !options.AssumeYes {
		if !o.confirm(fmt.Sprintf("Run the %s next?", next.DisplayName)) {
			return
		}
	}

	chained := options
	chained.BundleCode = next.Name
	if _, err := o.Run(ctx, chained); err != nil {
		fmt.Fprintf(os.Stderr, "Error running chained bundle: %v\n", err)
	}
}

// bundleKind derives the summary's bundle_kind value from the bundle name
// ("flutter_health" -> "health").
func bundleKind(name string) string {
	if i := strings.LastIndexByte(name, '_'); i >= 0 && i+1 < len(name) {
		return name[i+1:]
	}
	return name
}
