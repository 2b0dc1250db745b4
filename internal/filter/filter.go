// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter screens fetched articles down to human RCT reports in
// anesthesia and perioperative medicine.
package filter

import (
	"strings"

	"github.com/pdiddy/trialcast/pkg/types"
)

var titleRCTTerms = []string{
	"randomized", "randomised", "randomized controlled trial", "rct",
}

var abstractRCTTerms = []string{
	"randomized", "randomised", "randomly assigned",
	"controlled trial", "clinical trial", "double blind",
	"placebo", "allocation", "intervention group",
}

var humanTerms = []string{
	"human", "clinical", "patient", "volunteer", "randomized controlled trial",
}

var animalTerms = []string{
	"mouse", "rat", "animal", "mice", "rodent",
}

var anesthesiaTerms = []string{
	"anesthesia", "anaesthesia", "anesthesiology", "perioperative",
	"peri-operative", "regional anesthesia", "airway", "intubation",
	"nerve block", "analgesia", "surgery", "operative", "surgical",
}

var protocolTerms = []string{
	"protocol", "study protocol", "letter", "editorial",
	"commentary", "correspondence", "discussion",
}

var pediatricTerms = []string{
	"pediatric", "paediatric", "child", "infant", "neonate",
	"newborn", "adolescent", "children", "kids", "under 18",
}

var preferredLanguages = map[string]bool{
	"english": true,
	"eng":     true,
	"french":  true,
	"fre":     true,
}

// IsRCT reports whether the article looks like a randomized controlled
// trial: explicit title wording, or at least two RCT keywords in the abstract.
func IsRCT(a types.Article) bool {
	title := strings.ToLower(a.Title)
	for _, term := range titleRCTTerms {
		if strings.Contains(title, term) {
			return true
		}
	}

	abstract := strings.ToLower(a.Abstract)
	count := 0
	for _, term := range abstractRCTTerms {
		if strings.Contains(abstract, term) {
			count++
		}
	}
	return count >= 2
}

// IsHumanStudy reports whether the article describes a human study. The
// check is deliberately inclusive: only articles with animal wording and
// no human wording are rejected, since many clinical trials never say
// "human" outright.
func IsHumanStudy(a types.Article) bool {
	mesh := strings.ToLower(strings.Join(a.MeshTerms, " "))
	meshHuman := containsAny(mesh, humanTerms)
	meshAnimal := containsAny(mesh, animalTerms)
	if meshAnimal && !meshHuman {
		return false
	}

	text := strings.ToLower(a.Title + " " + a.Abstract)
	hasHuman := containsAny(text, humanTerms)
	hasAnimal := containsAny(text, animalTerms)
	if hasAnimal && !hasHuman {
		return false
	}
	return hasHuman || !hasAnimal
}

// IsAnesthesiaRelated reports whether the article touches anesthesia or
// perioperative medicine, by MeSH terms or title/abstract wording.
func IsAnesthesiaRelated(a types.Article) bool {
	for _, term := range a.MeshTerms {
		if containsAny(strings.ToLower(term), anesthesiaTerms) {
			return true
		}
	}
	return containsAny(strings.ToLower(a.Title+" "+a.Abstract), anesthesiaTerms)
}

// IsPreferredLanguage reports whether the article is in English or French.
func IsPreferredLanguage(a types.Article) bool {
	return preferredLanguages[strings.ToLower(a.Language)]
}

// IsProtocolOrLetter reports whether the article is a protocol, letter, or
// similar piece without trial results. Always false when protocols are allowed.
func IsProtocolOrLetter(a types.Article, cfg types.FetchConfig) bool {
	if cfg.AllowProtocols {
		return false
	}
	return containsAny(strings.ToLower(a.Title+" "+a.Abstract), protocolTerms)
}

// IsPediatricOnly reports whether the article is a pediatric-only study.
// Always false when pediatric studies are allowed.
func IsPediatricOnly(a types.Article, cfg types.FetchConfig) bool {
	if cfg.AllowPediatric {
		return false
	}
	return containsAny(strings.ToLower(a.Title+" "+a.Abstract), pediatricTerms)
}

// Deduplicate removes repeated articles by DOI, falling back to PMID.
// First occurrence wins.
func Deduplicate(articles []types.Article) []types.Article {
	seen := make(map[string]bool)
	var unique []types.Article

	for _, a := range articles {
		id := a.Identifier()
		if id == "" || seen[id] {
			continue
		}
		if a.DOI != "" {
			seen[a.DOI] = true
		}
		if a.PMID != "" {
			seen[a.PMID] = true
		}
		unique = append(unique, a)
	}
	return unique
}

// Apply runs every screen and returns the surviving, deduplicated articles.
func Apply(articles []types.Article, cfg types.FetchConfig) []types.Article {
	var kept []types.Article
	for _, a := range articles {
		if IsRCT(a) &&
			IsHumanStudy(a) &&
			IsAnesthesiaRelated(a) &&
			IsPreferredLanguage(a) &&
			!IsProtocolOrLetter(a, cfg) &&
			!IsPediatricOnly(a, cfg) {
			kept = append(kept, a)
		}
	}
	return Deduplicate(kept)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
