// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score ranks candidate RCTs by podcast interestingness using
// fixed editorial heuristics.
package score

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/trialcast/pkg/types"
)

// highQualityJournals are the anesthesiology and perioperative-medicine
// venues that earn a quality bonus.
var highQualityJournals = map[string]bool{
	"Anesthesiology":                                   true,
	"Anaesthesiology":                                  true,
	"British Journal of Anaesthesia":                   true,
	"Anesthesia and Analgesia":                         true,
	"Anesthesia & Analgesia":                           true,
	"Anaesthesia":                                      true,
	"European Journal of Anaesthesiology":              true,
	"Journal of Clinical Anesthesia":                   true,
	"Acta Anaesthesiologica Scandinavica":              true,
	"Canadian Journal of Anesthesia":                   true,
	"Regional Anesthesia and Pain Medicine":            true,
	"Pain Medicine":                                    true,
	"Journal of Anesthesia":                            true,
	"Anaesthesia, Pain & Intensive Care":               true,
	"Middle East Journal of Anesthesiology":            true,
	"Korean Journal of Anesthesiology":                 true,
	"Saudi Journal of Anaesthesia":                     true,
	"Indian Journal of Anaesthesia":                    true,
	"Journal of Anaesthesiology Clinical Pharmacology": true,
	"A & A Case Reports":                               true,
}

// patientCenteredOutcomes mark endpoints clinicians and patients feel directly.
var patientCenteredOutcomes = []string{
	"pain", "mortality", "morbidity", "complications", "recovery",
	"discharge", "quality of life", "functional outcome", "patient satisfaction",
	"length of stay", "readmission", "adverse events", "safety",
}

// actionableInterventions mark interventions an anesthesiologist can change
// on Monday morning.
var actionableInterventions = []string{
	"airway", "intubation", "ventilation", "regional", "block",
	"analgesia", "anesthetic", "sedation", "hemodynamic", "fluid",
	"blood pressure", "hypotension", "hypertension", "cardiac output",
}

var (
	percentPattern   = regexp.MustCompile(`\d+\.?\d*%`)
	directionPattern = regexp.MustCompile(`(?i)\d+\.?\d*\s*(increase|decrease|higher|lower|better|worse)`)
)

// Article assigns an interestingness score and a rationale explaining
// which heuristics fired.
func Article(a types.Article) (float64, string) {
	var (
		score     float64
		rationale []string
	)

	switch {
	case a.SampleSize >= 500:
		score += 3.0
		rationale = append(rationale, "large sample size (>500)")
	case a.SampleSize >= 100:
		score += 1.5
		rationale = append(rationale, "moderate sample size (>100)")
	}

	if a.Multicenter {
		score += 1.0
		rationale = append(rationale, "multicenter study")
	}

	if containsAny(strings.ToLower(a.PrimaryOutcome), patientCenteredOutcomes) {
		score += 1.5
		rationale = append(rationale, "patient-centered outcome")
	}

	if containsAny(strings.ToLower(a.Intervention), actionableInterventions) {
		score += 1.5
		rationale = append(rationale, "clinically actionable intervention")
	}

	if highQualityJournals[a.Journal] {
		score += 2.0
		rationale = append(rationale, "high-quality journal")
	}

	if effect := strings.TrimSpace(a.EffectSummary); effect != "" {
		if percentPattern.MatchString(effect) || directionPattern.MatchString(effect) {
			score += 1.0
			rationale = append(rationale, "quantified effect")
		}
	}

	if len(rationale) == 0 {
		return score, "no standout features"
	}
	return score, strings.Join(rationale, "; ")
}

// All scores every article in place.
func All(articles []types.Article) []types.Article {
	for i := range articles {
		articles[i].Score, articles[i].Rationale = Article(articles[i])
	}
	return articles
}

// Rank sorts articles by score, highest first. The sort is stable so
// equal-scoring articles keep their fetch order.
func Rank(articles []types.Article) []types.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Score > articles[j].Score
	})
	return articles
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
