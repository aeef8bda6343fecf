// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandExecutor handles running one external tool invocation.
type CommandExecutor struct {
	command     string
	args        []string
	workingDir  string
	environment []string
	stdin       string
	verbose     bool
}

// CommandResult holds the result of command execution.
type CommandResult struct {
	Stdout     []byte
	Stderr     []byte
	Error      error
	ExitStatus int
}

// Combined returns stdout and stderr concatenated, for failure
// classification.
func (r *CommandResult) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}

// NewCommandExecutor creates a new command executor.
func NewCommandExecutor(command string, args []string) *CommandExecutor {
	return &CommandExecutor{
		command: command,
		args:    args,
	}
}

// WithWorkingDir sets the working directory.
func (e *CommandExecutor) WithWorkingDir(dir string) *CommandExecutor {
	e.workingDir = dir
	return e
}

// WithEnvironment sets environment variables.
func (e *CommandExecutor) WithEnvironment(env []string) *CommandExecutor {
	e.environment = env
	return e
}

// WithStdin feeds the given text to the process on standard input.
func (e *CommandExecutor) WithStdin(input string) *CommandExecutor {
	e.stdin = input
	return e
}

// WithVerbose enables mirroring of process output to the terminal.
func (e *CommandExecutor) WithVerbose(verbose bool) *CommandExecutor {
	e.verbose = verbose
	return e
}

// Execute runs the command and returns its captured output. The process
// blocks the caller until it exits; cancellation of ctx kills it.
func (e *CommandExecutor) Execute(ctx context.Context) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, e.command, e.args...)

	var stdout, stderr bytes.Buffer

	if e.verbose {
		cmd.Stdout = io.MultiWriter(&stdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if e.workingDir != "" {
		cmd.Dir = e.workingDir
	}

	if len(e.environment) > 0 {
		cmd.Env = e.environment
	}

	if e.stdin != "" {
		cmd.Stdin = strings.NewReader(e.stdin)
	}

	if e.verbose {
		fmt.Printf("Executing: %s %s\n", e.command, strings.Join(e.args, " "))
	}

	err := cmd.Run()

	result := &CommandResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
		Error:  err,
	}

	if exitError, ok := err.(*exec.ExitError); ok {
		result.ExitStatus = exitError.ExitCode()
	}

	return result, err
}
