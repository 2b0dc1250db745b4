// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Article holds the unified metadata record for one candidate RCT, as
// parsed from PubMed and enriched from the title and abstract text.
type Article struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the authors in source order ("Fore Last").
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the full journal title.
	Journal string `json:"journal" yaml:"journal"`

	// Year is the publication year (0 when unknown).
	Year int `json:"year" yaml:"year"`

	// PubDate is the publication date as reported by PubMed.
	PubDate string `json:"pub_date" yaml:"pub_date"`

	// PMID is the PubMed identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// DOI is the Digital Object Identifier, when present.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the PubMed landing page.
	URL string `json:"url" yaml:"url"`

	// Language is the article language as reported by PubMed.
	Language string `json:"language" yaml:"language"`

	// MeshTerms lists the MeSH descriptor names.
	MeshTerms []string `json:"mesh_terms" yaml:"mesh_terms"`

	// TrialDesign summarizes the design wording found in the text
	// (e.g. "randomized, double-blind, parallel").
	TrialDesign string `json:"trial_design,omitempty" yaml:"trial_design,omitempty"`

	// SampleSize is the enrolled N derived from the abstract (0 when unknown).
	SampleSize int `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`

	// Multicenter reports whether the text describes a multicenter study.
	Multicenter bool `json:"multicenter,omitempty" yaml:"multicenter,omitempty"`

	// Intervention is the study intervention derived from the text.
	Intervention string `json:"intervention,omitempty" yaml:"intervention,omitempty"`

	// Comparator is the control arm derived from the text.
	Comparator string `json:"comparator,omitempty" yaml:"comparator,omitempty"`

	// PrimaryOutcome is the primary outcome derived from the text.
	PrimaryOutcome string `json:"primary_outcome,omitempty" yaml:"primary_outcome,omitempty"`

	// EffectSummary is a result sentence with quantified effects, when found.
	EffectSummary string `json:"effect_summary,omitempty" yaml:"effect_summary,omitempty"`

	// Score is the interestingness score assigned by the scoring stage.
	Score float64 `json:"score" yaml:"score"`

	// Rationale explains which scoring heuristics fired.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Identifier returns the DOI when present, falling back to the PMID.
// Empty when the article carries neither.
func (a Article) Identifier() string {
	if a.DOI != "" {
		return a.DOI
	}
	return a.PMID
}
