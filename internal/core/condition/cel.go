// SPDX-License-Identifier: Apache-2.0

package condition

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Evaluator handles evaluation of CEL chain conditions against run-summary
// data.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a CEL evaluator with the summary variable bound.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("summary", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// Evaluate evaluates a CEL expression against the summary map.
func (e *Evaluator) Evaluate(expression string, summary map[string]interface{}) (bool, error) {
	ast, issues := e.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error parsing expression: %w", issues.Err())
	}

	checked, issues := e.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error type-checking expression: %w", issues.Err())
	}

	program, err := e.env.Program(checked)
	if err != nil {
		return false, fmt.Errorf("error compiling expression: %w", err)
	}

	result, _, err := program.Eval(map[string]interface{}{
		"summary": summary,
	})
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}

	if result.Type() != types.BoolType {
		return false, fmt.Errorf("expression did not evaluate to a boolean")
	}

	return result.Value().(bool), nil
}
