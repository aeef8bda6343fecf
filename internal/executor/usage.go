// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"encoding/json"
	"math"

	"github.com/auditor-sh/auditor/internal/core/agent"
	"github.com/auditor-sh/auditor/internal/core/models"
	"github.com/itchyny/gojq"
)

// Usage extraction is strictly best-effort: any parse or query failure
// yields nil usage, never an error. Each agent's JSON shape is described by
// a small map of gojq queries so the executor stays free of per-agent
// branching.

type usageFieldMap struct {
	InputTokens         string
	OutputTokens        string
	CacheReadTokens     string
	CacheCreationTokens string
	CostUSD             string
}

var usageFieldMaps = map[agent.Agent]usageFieldMap{
	agent.Claude: {
		InputTokens:         ".usage.input_tokens",
		OutputTokens:        ".usage.output_tokens",
		CacheReadTokens:     ".usage.cache_read_input_tokens",
		CacheCreationTokens: ".usage.cache_creation_input_tokens",
		CostUSD:             ".total_cost_usd",
	},
	agent.Gemini: {
		// Gemini reports aggregate prompt/candidate counts broken down per
		// sub-model; sum across them.
		InputTokens:     `[.stats.models[].tokens.prompt] | add`,
		OutputTokens:    `[.stats.models[].tokens.candidates] | add`,
		CacheReadTokens: `[.stats.models[].tokens.cached] | add`,
	},
	// Cursor exposes no usage data at all.
}

// ParseUsage extracts token usage from an agent's JSON stdout. It returns
// nil when the agent exposes no usage data or when anything about the
// payload is unparseable.
func ParseUsage(a agent.Agent, stdout string) *models.TokenUsage {
	fields, ok := usageFieldMaps[a]
	if !ok {
		return nil
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		return nil
	}

	usage := &models.TokenUsage{}

	input, ok := queryNumber(fields.InputTokens, payload)
	if !ok {
		return nil
	}
	usage.InputTokens = int(input)

	if output, ok := queryNumber(fields.OutputTokens, payload); ok {
		usage.OutputTokens = int(output)
	}
	if cached, ok := queryNumber(fields.CacheReadTokens, payload); ok {
		usage.CacheReadTokens = int(cached)
	}
	if created, ok := queryNumber(fields.CacheCreationTokens, payload); ok {
		usage.CacheCreationTokens = int(created)
	}
	if cost, ok := queryNumber(fields.CostUSD, payload); ok {
		usage.CostUSD = cost
		usage.HasCost = true
	}

	return usage
}

// queryNumber runs one gojq query and returns its first numeric result.
func queryNumber(query string, payload interface{}) (float64, bool) {
	if query == "" {
		return 0, false
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return 0, false
	}

	iter := parsed.Run(payload)
	value, ok := iter.Next()
	if !ok {
		return 0, false
	}
	if _, isErr := value.(error); isErr {
		return 0, false
	}

	switch n := value.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
