// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package appraise

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/trialcast/pkg/types"
)

// CardRedFlags runs the rule-based reporting checks against the card
// alone. Full-text checks live in the textclean package; the two lists
// are concatenated card-rules-first in the report.
func CardRedFlags(c types.Card) []string {
	var flags []string

	if c.SampleSize > 0 && c.SampleSize < 100 {
		flags = append(flags, "Underpowered signal: sample size < 100 for superiority trial")
	}

	if e := c.EffectEstimate; e != nil && len(e.CI) == 2 {
		width := math.Abs(e.CI[1] - e.CI[0])
		if e.Value != 0 && math.Abs(width/e.Value) > 1.0 {
			flags = append(flags, "Imprecise effect: wide confidence interval")
		}
		if e.P != nil && *e.P >= 0.045 && *e.P <= 0.06 {
			flags = append(flags, "Borderline p-value: fragile significance")
		}
	}

	if strings.TrimSpace(c.PrimaryOutcome) == "" {
		flags = append(flags, "Multiplicity/selective reporting risk: primary outcome unclear")
	}

	var missing []string
	if strings.TrimSpace(c.Allocation) == "" {
		missing = append(missing, "allocation concealment")
	}
	if strings.TrimSpace(c.Blinding) == "" {
		missing = append(missing, "blinding")
	}
	if len(missing) > 0 {
		flags = append(flags, fmt.Sprintf("Design opacity: missing %s", strings.Join(missing, ", ")))
	}

	population := strings.ToLower(c.Population)
	centers := strings.ToLower(c.Centers)
	if (strings.Contains(centers, "single") || strings.Contains(population, "single")) &&
		strings.Contains(population, "specific") {
		flags = append(flags, "External validity concern: narrow population")
	}

	funding := strings.ToLower(c.Funding)
	if strings.Contains(funding, "industry") || strings.Contains(funding, "commercial") {
		flags = append(flags, "Potential bias: industry funding declared")
	}

	return flags
}
