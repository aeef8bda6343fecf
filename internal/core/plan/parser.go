// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/auditor-sh/auditor/internal/core/models"
)

// Parsing runs as a small state machine so that the "stop at the first blank
// line or new section" rule is an explicit transition rather than implicit
// loop-break logic.
type parseState int

const (
	beforeSection parseState = iota
	inList
	done
)

var (
	// Matches the section label that introduces the numbered step list,
	// tolerating heading markers and surrounding emphasis.
	sectionRegex = regexp.MustCompile(`(?i)^\s*[#*_]*\s*execution\s+order\s*[:*_]*\s*$`)

	// Matches "<int>. <rule-token>" with an optional parenthesized annotation.
	stepRegex = regexp.MustCompile(`^\s*(\d+)\.\s+([A-Za-z0-9_\-]+)\s*(?:\(([^)]*)\))?\s*$`)

	// Lines that open a new document section end the list.
	headingRegex = regexp.MustCompile(`^\s*(#{1,6}\s|\*\*[^*]+\*\*\s*:?\s*$|[-*]\s)`)
)

// Parse extracts the ordered step list from plan text. It returns an empty
// slice when the execution-order section is missing; callers must treat that
// as "nothing to execute" rather than an error.
func Parse(planText string) []models.ExecutionStep {
	var steps []models.ExecutionStep

	state := beforeSection
	scanner := bufio.NewScanner(strings.NewReader(planText))

	for scanner.Scan() {
		line := scanner.Text()

		switch state {
		case beforeSection:
			if sectionRegex.MatchString(line) {
				state = inList
			}

		case inList:
			trimmed := strings.TrimSpace(line)

			if match := stepRegex.FindStringSubmatch(line); match != nil {
				index, err := strconv.Atoi(match[1])
				if err != nil {
					continue
				}

				annotation := strings.TrimSpace(match[3])
				steps = append(steps, models.ExecutionStep{
					Index:       index,
					RuleName:    match[2],
					IsMandatory: isMandatoryAnnotation(annotation),
					Annotation:  annotation,
				})
				continue
			}

			// A blank line before the first step is just the gap between
			// the label and the list. After the first step it ends the list.
			if trimmed == "" {
				if len(steps) > 0 {
					state = done
				}
				continue
			}

			// Any new-section shape (heading, bold label, bullet) ends the
			// list regardless of how many steps were collected.
			if headingRegex.MatchString(line) {
				state = done
			}

		case done:
			// Nothing more to collect.
		}

		if state == done {
			break
		}
	}

	return steps
}

// isMandatoryAnnotation reports whether the annotation marks a step whose
// failure must abort the run.
func isMandatoryAnnotation(annotation string) bool {
	return strings.Contains(strings.ToLower(annotation), "mandatory")
}
