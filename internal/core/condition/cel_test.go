// SPDX-License-Identifier: Apache-2.0

package condition_test

import (
	"testing"

	"github.com/auditor-sh/auditor/internal/core/condition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateChainCondition(t *testing.T) {
	evaluator, err := condition.NewEvaluator()
	require.NoError(t, err)

	summary := map[string]interface{}{
		"success":     true,
		"failed":      0,
		"bundle_kind": "health",
	}

	cases := []struct {
		expression string
		expected   bool
	}{
		{`summary.success`, true},
		{`summary.success && summary.bundle_kind == "health"`, true},
		{`summary.failed > 0`, false},
		{`summary.bundle_kind == "security"`, false},
	}

	for _, tc := range cases {
		result, err := evaluator.Evaluate(tc.expression, summary)
		require.NoError(t, err, "expression %q", tc.expression)
		assert.Equal(t, tc.expected, result, "expression %q", tc.expression)
	}
}

func TestEvaluateInvalidExpression(t *testing.T) {
	evaluator, err := condition.NewEvaluator()
	require.NoError(t, err)

	_, err = evaluator.Evaluate(`summary.success &&`, map[string]interface{}{"success": true})
	assert.Error(t, err)
}

func TestEvaluateNonBooleanResult(t *testing.T) {
	evaluator, err := condition.NewEvaluator()
	require.NoError(t, err)

	_, err = evaluator.Evaluate(`summary.bundle_kind`, map[string]interface{}{"bundle_kind": "health"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "did not evaluate to a boolean")
}
