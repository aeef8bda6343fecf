// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"os/exec"

	"github.com/auditor-sh/auditor/internal/core/agent"
)

// InvokeResult is the raw outcome of one agent subprocess invocation.
type InvokeResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Invoker is the single seam through which the step executor talks to an
// agent. One implementation exists per agent identity; the executor never
// branches on agent except through this interface.
type Invoker interface {
	// Invoke runs the agent once, non-interactively, with the full step
	// prompt, and returns its captured output. A non-nil error with a nil
	// result means the process could not be started at all.
	Invoke(ctx context.Context, prompt, model string) (*InvokeResult, error)

	// Agent returns the identity this invoker drives.
	Agent() agent.Agent
}

// NewInvoker builds the invoker for the given agent, working in projectDir.
func NewInvoker(a agent.Agent, projectDir string, verbose bool) Invoker {
	switch a {
	case agent.Claude:
		return &claudeInvoker{projectDir: projectDir, verbose: verbose}
	case agent.Gemini:
		return &geminiInvoker{projectDir: projectDir, verbose: verbose}
	default:
		return &cursorInvoker{projectDir: projectDir, verbose: verbose}
	}
}

// runAgent executes one agent binary and folds a start failure into the
// result contract.
func runAgent(ctx context.Context, binary string, args []string, projectDir string, verbose bool) (*InvokeResult, error) {
	result, err := NewCommandExecutor(binary, args).
		WithWorkingDir(projectDir).
		WithVerbose(verbose).
		Execute(ctx)

	// A non-exit error means the process never ran (binary missing, context
	// canceled before start); there is no output to classify.
	if err != nil {
		if _, exited := err.(*exec.ExitError); !exited {
			return nil, err
		}
	}

	return &InvokeResult{
		ExitCode: result.ExitStatus,
		Stdout:   string(result.Stdout),
		Stderr:   string(result.Stderr),
	}, nil
}

// claudeInvoker drives the Claude Code CLI in one-shot print mode with a
// JSON result and a fixed read/write toolset.
type claudeInvoker struct {
	projectDir string
	verbose    bool
}

func (i *claudeInvoker) Agent() agent.Agent { return agent.Claude }

func (i *claudeInvoker) Invoke(ctx context.Context, prompt, model string) (*InvokeResult, error) {
	args := []string{
		"-p", prompt,
		"--model", model,
		"--output-format", "json",
		"--allowedTools", "Read,Write,Glob,Grep",
	}
	return runAgent(ctx, agent.Claude.Binary(), args, i.projectDir, i.verbose)
}

// geminiInvoker drives the Gemini CLI non-interactively; usage statistics
// arrive on stdout as JSON.
type geminiInvoker struct {
	projectDir string
	verbose    bool
}

func (i *geminiInvoker) Agent() agent.Agent { return agent.Gemini }

func (i *geminiInvoker) Invoke(ctx context.Context, prompt, model string) (*InvokeResult, error) {
	args := []string{
		"--prompt", prompt,
		"--model", model,
		"--output-format", "json",
		"--approval-mode", "auto_edit",
	}
	return runAgent(ctx, agent.Gemini.Binary(), args, i.projectDir, i.verbose)
}

// cursorInvoker drives the cursor-agent CLI. It exposes no token usage.
type cursorInvoker struct {
	projectDir string
	verbose    bool
}

func (i *cursorInvoker) Agent() agent.Agent { return agent.Cursor }

func (i *cursorInvoker) Invoke(ctx context.Context, prompt, model string) (*InvokeResult, error) {
	args := []string{
		"--print", prompt,
		"--model", model,
		"--output-format", "json",
		"--force",
	}
	return runAgent(ctx, agent.Cursor.Binary(), args, i.projectDir, i.verbose)
}
