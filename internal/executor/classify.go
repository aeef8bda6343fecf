// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"strings"
)

// FailureKind classifies an agent failure from its combined output.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureModelNotFound
	FailureQuota
	FailureAuth
)

// Marker groups are matched case-insensitively as substrings of the combined
// stdout/stderr.
var (
	modelNotFoundMarkers = []string{
		"model not found",
		"unknown model",
		"invalid model",
		"no such model",
	}
	quotaMarkers = []string{
		"quota",
		"rate limit",
		"rate-limit",
		"resource_exhausted",
		"resource-exhausted",
		"overloaded",
		"capacity",
		"429",
	}
	authMarkers = []string{
		"401",
		"403",
		"unauthorized",
		"unauthenticated",
		"permission denied",
		"permission-denied",
		"authentication",
	}
)

// Classify inspects combined agent output and returns the failure category.
func Classify(combinedOutput string) FailureKind {
	lower := strings.ToLower(combinedOutput)

	if containsAny(lower, modelNotFoundMarkers) {
		return FailureModelNotFound
	}
	if containsAny(lower, quotaMarkers) {
		return FailureQuota
	}
	if containsAny(lower, authMarkers) {
		return FailureAuth
	}
	return FailureGeneric
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// Remediation maps a failure category to an operator-facing message.
func (k FailureKind) Remediation(model string, exitCode int) string {
	switch k {
	case FailureModelNotFound:
		return fmt.Sprintf("model '%s' is not available to this agent; check the model name or your subscription tier", model)
	case FailureQuota:
		return "agent quota or capacity exhausted; wait for the limit to reset or configure a fallback model"
	case FailureAuth:
		return "agent authentication failed; log in to the agent CLI again and check account permissions"
	default:
		return fmt.Sprintf("agent process exited with code %d", exitCode)
	}
}

// Retryable reports whether a failure of this kind should trigger the single
// fallback-model retry. Only quota/capacity failures are transient in a way
// a different model can route around; a missing model is a configuration
// error and must surface as one.
func (k FailureKind) Retryable() bool {
	return k == FailureQuota
}
