// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich derives study details (sample size, design, arms,
// outcomes) from an article's title and abstract. PubMed records carry
// none of these as structured fields, so everything here is best-effort
// text heuristics; fields stay empty when no signal is found.
package enrich

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/trialcast/pkg/types"
)

var (
	nEqualsPattern    = regexp.MustCompile(`(?i)\bn\s*=\s*(\d{2,6})\b`)
	enrolledPattern   = regexp.MustCompile(`(?i)\b(\d{2,6})\s+(?:patients|participants|subjects|adults|volunteers|women|men)\b`)
	centersPattern    = regexp.MustCompile(`(?i)\b(\d{1,3})\s+(?:centers|centres|sites|hospitals)\b`)
	versusPattern     = regexp.MustCompile(`(?i)^(.{3,120}?)\s+(?:versus|vs\.?|compared (?:with|to))\s+(.{3,120}?)(?:\s+(?:for|in|during|after|on)\b|[:.,]|$)`)
	outcomePattern    = regexp.MustCompile(`(?i)(?:primary (?:outcome|endpoint|end point)[^.]*?(?:was|is|:)\s*)([^.;]+)`)
	quantifiedPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*%|\b(?:95\s*%\s*CI|confidence interval)\b|\bp\s*[=<>]\s*0?\.\d+`)
)

var designTerms = []struct {
	needle string
	label  string
}{
	{"crossover", "crossover"},
	{"cross-over", "crossover"},
	{"parallel", "parallel"},
	{"double-blind", "double-blind"},
	{"double blind", "double-blind"},
	{"triple-blind", "triple-blind"},
	{"single-blind", "single-blind"},
	{"single blind", "single-blind"},
	{"open-label", "open-label"},
	{"open label", "open-label"},
	{"placebo-controlled", "placebo-controlled"},
	{"placebo controlled", "placebo-controlled"},
	{"non-inferiority", "non-inferiority"},
	{"noninferiority", "non-inferiority"},
}

// Apply fills the derivable fields of each article in place. Fields that
// already hold a value are left alone.
func Apply(articles []types.Article) []types.Article {
	for i := range articles {
		enrichOne(&articles[i])
	}
	return articles
}

func enrichOne(a *types.Article) {
	text := a.Title + " " + a.Abstract

	if a.SampleSize == 0 {
		a.SampleSize = SampleSize(text)
	}
	if !a.Multicenter {
		a.Multicenter = Multicenter(text)
	}
	if a.TrialDesign == "" {
		a.TrialDesign = Design(text)
	}
	if a.Intervention == "" && a.Comparator == "" {
		a.Intervention, a.Comparator = Arms(a.Title, a.Abstract)
	}
	if a.PrimaryOutcome == "" {
		a.PrimaryOutcome = PrimaryOutcome(a.Abstract)
	}
	if a.EffectSummary == "" {
		a.EffectSummary = EffectSummary(a.Abstract)
	}
}

// SampleSize returns the largest enrollment count mentioned in the text,
// or 0 when none is found.
func SampleSize(text string) int {
	best := 0
	for _, pat := range []*regexp.Regexp{nEqualsPattern, enrolledPattern} {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil && n > best {
				best = n
			}
		}
	}
	return best
}

// Multicenter reports whether the text describes a multicenter study.
func Multicenter(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range []string{"multicenter", "multicentre", "multi-center", "multi-centre", "multisite", "multi-site"} {
		if strings.Contains(lower, term) {
			return true
		}
	}
	if m := centersPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			return true
		}
	}
	return false
}

// Design summarizes the design wording found in the text, always leading
// with "randomized" (the filter stage guarantees the article is an RCT).
func Design(text string) string {
	lower := strings.ToLower(text)
	parts := []string{"randomized"}
	seen := map[string]bool{}
	for _, dt := range designTerms {
		if strings.Contains(lower, dt.needle) && !seen[dt.label] {
			parts = append(parts, dt.label)
			seen[dt.label] = true
		}
	}
	return strings.Join(parts, ", ")
}

// Arms splits "X versus Y" wording into intervention and comparator.
// The title is tried first since it is usually the cleanest statement.
func Arms(title, abstract string) (intervention, comparator string) {
	for _, text := range []string{title, abstract} {
		if m := versusPattern.FindStringSubmatch(text); m != nil {
			return tidyArm(m[1]), tidyArm(m[2])
		}
	}
	return "", ""
}

// tidyArm trims connective lead-ins that the versus regex drags along.
func tidyArm(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"we compared ", "effect of ", "effects of ", "comparison of ", "efficacy of ", "a ", "the "} {
		if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = s[len(prefix):]
		}
	}
	return strings.TrimSpace(s)
}

// PrimaryOutcome returns the primary-outcome clause from the abstract, or "".
func PrimaryOutcome(abstract string) string {
	if m := outcomePattern.FindStringSubmatch(abstract); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// EffectSummary returns the first abstract sentence carrying quantified
// results (a percentage, confidence interval, or p-value), or "".
func EffectSummary(abstract string) string {
	for _, sentence := range splitSentences(abstract) {
		if quantifiedPattern.MatchString(sentence) {
			return strings.TrimSpace(sentence)
		}
	}
	return ""
}

// splitSentences is a rough period split; decimals like "0.03" must not
// break a sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		if i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
			continue
		}
		sentences = append(sentences, text[start:i+1])
		start = i + 1
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
