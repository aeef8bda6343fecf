// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// TestRunSummary holds counts recovered from a test runner's output.
type TestRunSummary struct {
	Total        int
	Passed       int
	Failed       int
	Skipped      int
	FailingTests []string
}

var (
	// Final line of `flutter test -r compact`:
	// "01:23 +15 ~1 -2: Some tests failed."
	flutterSummaryRegex = regexp.MustCompile(`\+(\d+)(?:\s+~(\d+))?(?:\s+-(\d+))?:`)

	// Failing test lines in the compact reporter end with "[E]".
	flutterFailureRegex = regexp.MustCompile(`^\d+:\d+\s+\+\d+(?:\s+~\d+)?(?:\s+-\d+)?:\s+(.+?)\s+\[E\]\s*$`)

	// Jest summary: "Tests:       2 failed, 1 skipped, 17 passed, 20 total"
	jestCountRegex = regexp.MustCompile(`(\d+)\s+(failed|skipped|passed|total)`)
)

// ParseFlutterTestOutput recovers the compact-reporter summary from
// `flutter test` output: pass/skip/fail counts from the last progress line
// and failing test names from error-marked lines.
func ParseFlutterTestOutput(output string) (TestRunSummary, bool) {
	var (
		summary TestRunSummary
		found   bool
		seen    = make(map[string]bool)
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if match := flutterFailureRegex.FindStringSubmatch(line); match != nil {
			name := strings.TrimSpace(match[1])
			if name != "" && !seen[name] {
				seen[name] = true
				summary.FailingTests = append(summary.FailingTests, name)
			}
		}

		// Progress lines repeat; the last one carries the final counts.
		if match := flutterSummaryRegex.FindStringSubmatch(line); match != nil {
			summary.Passed = atoiOrZero(match[1])
			summary.Skipped = atoiOrZero(match[2])
			summary.Failed = atoiOrZero(match[3])
			found = true
		}
	}

	summary.Total = summary.Passed + summary.Skipped + summary.Failed
	return summary, found
}

// ParseJestTestOutput recovers counts from jest's "Tests:" summary line.
func ParseJestTestOutput(output string) (TestRunSummary, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Tests:") {
			continue
		}

		var summary TestRunSummary
		for _, match := range jestCountRegex.FindAllStringSubmatch(line, -1) {
			count := atoiOrZero(match[1])
			switch match[2] {
			case "failed":
				summary.Failed = count
			case "skipped":
				summary.Skipped = count
			case "passed":
				summary.Passed = count
			case "total":
				summary.Total = count
			}
		}

		if summary.Total == 0 {
			summary.Total = summary.Passed + summary.Skipped + summary.Failed
		}
		return summary, true
	}

	return TestRunSummary{}, false
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
