// SPDX-License-Identifier: Apache-2.0

package models_test

import (
	"testing"

	"github.com/auditor-sh/auditor/internal/core/models"
	"github.com/stretchr/testify/assert"
)

func TestTokenUsageTotalInputTokens(t *testing.T) {
	usage := &models.TokenUsage{
		InputTokens:         100,
		OutputTokens:        50,
		CacheReadTokens:     30,
		CacheCreationTokens: 20,
	}

	assert.Equal(t, 150, usage.TotalInputTokens(), "total input should include both cache fields")
}

func TestTokenUsageAdd(t *testing.T) {
	total := &models.TokenUsage{}

	total.Add(&models.TokenUsage{InputTokens: 100, OutputTokens: 50})
	total.Add(&models.TokenUsage{InputTokens: 200, CacheReadTokens: 50})
	total.Add(nil)

	assert.Equal(t, 300, total.InputTokens)
	assert.Equal(t, 50, total.OutputTokens)
	assert.Equal(t, 350, total.TotalInputTokens())
	assert.False(t, total.HasCost, "no cost data should mean no cost line")

	total.Add(&models.TokenUsage{CostUSD: 0.25, HasCost: true})
	assert.True(t, total.HasCost)
	assert.InDelta(t, 0.25, total.CostUSD, 0.0001)
}

func TestPreflightResultLookup(t *testing.T) {
	var empty *models.PreflightResult
	assert.False(t, empty.HasArtifacts())

	_, ok := empty.Artifact("flutter_tests")
	assert.False(t, ok)

	result := &models.PreflightResult{
		Artifacts: map[string]string{"flutter_tests": "# Tests\n"},
	}
	assert.True(t, result.HasArtifacts())

	text, ok := result.Artifact("flutter_tests")
	assert.True(t, ok)
	assert.Contains(t, text, "# Tests")
}
