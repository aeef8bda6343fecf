// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"

	"github.com/auditor-sh/auditor/internal/core/agent"
	"github.com/auditor-sh/auditor/internal/executor"
	"github.com/stretchr/testify/mock"
)

// MockInvoker is a testify mock for the executor's agent seam.
type MockInvoker struct {
	mock.Mock
	AgentID agent.Agent
}

// Invoke mocks one agent invocation.
func (m *MockInvoker) Invoke(ctx context.Context, prompt, model string) (*executor.InvokeResult, error) {
	args := m.Called(ctx, prompt, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*executor.InvokeResult), args.Error(1)
}

// Agent returns the configured identity (claude when unset).
func (m *MockInvoker) Agent() agent.Agent {
	if m.AgentID == "" {
		return agent.Claude
	}
	return m.AgentID
}

// ScriptedInvoker replays canned results in order and records the models it
// was invoked with. Useful for retry-count assertions where testify's
// expectation ordering gets noisy.
type ScriptedInvoker struct {
	AgentID agent.Agent
	Results []*executor.InvokeResult
	Models  []string
	Prompts []string

	// OnInvoke, when set, runs before each scripted result is returned.
	OnInvoke func(call int)

	calls int
}

// Invoke returns the next scripted result.
func (s *ScriptedInvoker) Invoke(ctx context.Context, prompt, model string) (*executor.InvokeResult, error) {
	s.Models = append(s.Models, model)
	s.Prompts = append(s.Prompts, prompt)

	if s.OnInvoke != nil {
		s.OnInvoke(s.calls)
	}

	var result *executor.InvokeResult
	if s.calls < len(s.Results) {
		result = s.Results[s.calls]
	} else {
		result = &executor.InvokeResult{ExitCode: 0}
	}
	s.calls++
	return result, nil
}

// Calls reports how many invocations happened.
func (s *ScriptedInvoker) Calls() int {
	return s.calls
}

// Agent returns the configured identity (claude when unset).
func (s *ScriptedInvoker) Agent() agent.Agent {
	if s.AgentID == "" {
		return agent.Claude
	}
	return s.AgentID
}
