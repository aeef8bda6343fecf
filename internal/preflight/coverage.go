// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"bufio"
	"strconv"
	"strings"
)

// CoverageStats summarizes a line-coverage data file in lcov format.
type CoverageStats struct {
	TotalLines        int
	CoveredLines      int
	FileCount         int
	ZeroCoverageFiles int
}

// Percent returns line coverage as a percentage, 0 when nothing was
// measured.
func (s CoverageStats) Percent() float64 {
	if s.TotalLines == 0 {
		return 0
	}
	return float64(s.CoveredLines) / float64(s.TotalLines) * 100
}

// ParseLCOV extracts coverage statistics from lcov.info content. Records
// without LF/LH summaries fall back to counting DA lines.
func ParseLCOV(data string) CoverageStats {
	var stats CoverageStats

	var (
		inRecord    bool
		recordTotal int
		recordHit   int
		sawSummary  bool
	)

	flush := func() {
		if !inRecord {
			return
		}
		stats.FileCount++
		stats.TotalLines += recordTotal
		stats.CoveredLines += recordHit
		if recordHit == 0 {
			stats.ZeroCoverageFiles++
		}
		inRecord = false
		recordTotal = 0
		recordHit = 0
		sawSummary = false
	}

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "SF:"):
			flush()
			inRecord = true

		case strings.HasPrefix(line, "DA:") && inRecord && !sawSummary:
			parts := strings.Split(line[3:], ",")
			if len(parts) != 2 {
				continue
			}
			hits, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			recordTotal++
			if hits > 0 {
				recordHit++
			}

		case strings.HasPrefix(line, "LF:") && inRecord:
			if n, err := strconv.Atoi(line[3:]); err == nil {
				recordTotal = n
				sawSummary = true
			}

		case strings.HasPrefix(line, "LH:") && inRecord:
			if n, err := strconv.Atoi(line[3:]); err == nil {
				recordHit = n
				sawSummary = true
			}

		case line == "end_of_record":
			flush()
		}
	}
	flush()

	return stats
}
