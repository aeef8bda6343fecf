// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlutterTestOutputAllPassing(t *testing.T) {
	output := `00:01 +3: loading test/widget_test.dart
00:03 +14: All tests passed!
`

	summary, found := ParseFlutterTestOutput(output)
	require.True(t, found)
	assert.Equal(t, 14, summary.Passed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 14, summary.Total)
	assert.Empty(t, summary.FailingTests)
}

func TestParseFlutterTestOutputWithFailures(t *testing.T) {
	output := `00:01 +3: group one passes
00:02 +3 -1: parses empty input [E]
  Expected: <0>
    Actual: <1>
00:04 +15 ~1 -2: rejects bad tokens [E]
00:04 +15 ~1 -2: Some tests failed.
`

	summary, found := ParseFlutterTestOutput(output)
	require.True(t, found)
	assert.Equal(t, 15, summary.Passed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 18, summary.Total)
	assert.Equal(t, []string{"parses empty input", "rejects bad tokens"}, summary.FailingTests)
}

func TestParseFlutterTestOutputNoSummary(t *testing.T) {
	_, found := ParseFlutterTestOutput("flutter crashed before running anything\n")
	assert.False(t, found)
}

func TestParseJestTestOutput(t *testing.T) {
	output := `PASS src/App.test.js
FAIL src/util.test.js

Test Suites: 1 failed, 1 passed, 2 total
Tests:       2 failed, 1 skipped, 17 passed, 20 total
Snapshots:   0 total
Time:        3.214 s
`

	summary, found := ParseJestTestOutput(output)
	require.True(t, found)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 17, summary.Passed)
	assert.Equal(t, 20, summary.Total)
}

func TestParseJestTestOutputNoSummary(t *testing.T) {
	_, found := ParseJestTestOutput("npm ERR! missing script: test\n")
	assert.False(t, found)
}
