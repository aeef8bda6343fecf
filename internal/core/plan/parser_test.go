// SPDX-License-Identifier: Apache-2.0

package plan_test

import (
	"testing"

	"github.com/auditor-sh/auditor/internal/core/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicPlan(t *testing.T) {
	planText := `# Health Audit Plan

Some introduction text.

## Execution Order

1. flutter_toolchain (MANDATORY - toolchain must be usable)
2. flutter_dependencies
3. audit_report (mandatory)

## Notes

More text here.
`

	steps := plan.Parse(planText)
	require.Len(t, steps, 3)

	assert.Equal(t, 1, steps[0].Index)
	assert.Equal(t, "flutter_toolchain", steps[0].RuleName)
	assert.True(t, steps[0].IsMandatory)
	assert.Equal(t, "MANDATORY - toolchain must be usable", steps[0].Annotation)

	assert.Equal(t, 2, steps[1].Index)
	assert.Equal(t, "flutter_dependencies", steps[1].RuleName)
	assert.False(t, steps[1].IsMandatory)
	assert.Empty(t, steps[1].Annotation)

	assert.Equal(t, 3, steps[2].Index)
	assert.True(t, steps[2].IsMandatory, "lowercase mandatory marker should count")
}

func TestParseSectionLabelVariants(t *testing.T) {
	variants := []string{
		"Execution order",
		"EXECUTION ORDER:",
		"**Execution Order**",
		"### execution order",
		"_Execution Order_",
	}

	for _, label := range variants {
		planText := label + "\n1. some_rule\n"
		steps := plan.Parse(planText)
		assert.Len(t, steps, 1, "label variant %q should be recognized", label)
	}
}

func TestParseStopsAtBlankLine(t *testing.T) {
	planText := `Execution order

1. first_rule
2. second_rule

3. not_a_step
4. also_not_a_step
`

	steps := plan.Parse(planText)
	require.Len(t, steps, 2)
	assert.Equal(t, "first_rule", steps[0].RuleName)
	assert.Equal(t, "second_rule", steps[1].RuleName)
}

func TestParseStopsAtNewSection(t *testing.T) {
	planText := `Execution order
1. first_rule
## Another Section
2. not_a_step
`

	steps := plan.Parse(planText)
	require.Len(t, steps, 1)
	assert.Equal(t, "first_rule", steps[0].RuleName)
}

func TestParseStopsAtBoldLabel(t *testing.T) {
	planText := `Execution order
1. first_rule
**Important:**
2. not_a_step
`

	steps := plan.Parse(planText)
	assert.Len(t, steps, 1)
}

func TestParseMissingSection(t *testing.T) {
	planText := `# A Plan Without The Section

1. looks_like_a_step
2. another_one
`

	steps := plan.Parse(planText)
	assert.Empty(t, steps, "text without the labeled section should yield no steps")
}

func TestParseEmptyInput(t *testing.T) {
	assert.Empty(t, plan.Parse(""))
}

func TestParseIndicesMatchSource(t *testing.T) {
	planText := `Execution order
1. one
2. two
3. three
`

	steps := plan.Parse(planText)
	require.Len(t, steps, 3)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Index, "indices should match the source numbering")
	}
}
