// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// EffectEstimate is a structured effect size for the primary outcome.
type EffectEstimate struct {
	// Measure names the effect measure: mean_diff, RR, OR, or HR.
	Measure string `json:"measure" yaml:"measure"`

	// Value is the point estimate.
	Value float64 `json:"value" yaml:"value"`

	// CI is the 95% confidence interval as [low, high].
	CI []float64 `json:"ci" yaml:"ci"`

	// P is the reported p-value, when available.
	P *float64 `json:"p,omitempty" yaml:"p,omitempty"`
}

// Validate checks the structural invariants of the estimate.
func (e EffectEstimate) Validate() error {
	if e.Measure == "" {
		return fmt.Errorf("effect estimate: measure is required")
	}
	if len(e.CI) != 2 {
		return fmt.Errorf("effect estimate: CI must have exactly two bounds, got %d", len(e.CI))
	}
	if e.CI[0] > e.CI[1] {
		return fmt.Errorf("effect estimate: CI bounds out of order [%g, %g]", e.CI[0], e.CI[1])
	}
	return nil
}

// Card is the hand-off artifact between the fetch and appraise stages:
// a structured summary of the selected trial.
type Card struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Journal is the publication venue.
	Journal string `json:"journal" yaml:"journal"`

	// Date is an ISO date or the free-text publication date.
	Date string `json:"date" yaml:"date"`

	// DOI is the Digital Object Identifier.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// Score is the interestingness score from selection.
	Score float64 `json:"score" yaml:"score"`

	// Rationale is the selection rationale.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`

	// Design summarizes the trial design (e.g. "randomized, multicenter, parallel").
	Design string `json:"design,omitempty" yaml:"design,omitempty"`

	// Population describes the enrolled population.
	Population string `json:"population,omitempty" yaml:"population,omitempty"`

	// SampleSize is the enrolled N (0 when unknown).
	SampleSize int `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`

	// Intervention is the study intervention.
	Intervention string `json:"intervention,omitempty" yaml:"intervention,omitempty"`

	// Comparator is the control arm.
	Comparator string `json:"comparator,omitempty" yaml:"comparator,omitempty"`

	// PrimaryOutcome is the primary endpoint.
	PrimaryOutcome string `json:"primary_outcome,omitempty" yaml:"primary_outcome,omitempty"`

	// KeyResultText is a human summary of the main result.
	KeyResultText string `json:"key_result_text,omitempty" yaml:"key_result_text,omitempty"`

	// EffectEstimate is the structured primary effect, when known.
	EffectEstimate *EffectEstimate `json:"effect_estimate,omitempty" yaml:"effect_estimate,omitempty"`

	// Centers describes the center count ("single-center", "multicenter").
	Centers string `json:"centers,omitempty" yaml:"centers,omitempty"`

	// Blinding describes blinding, when reported.
	Blinding string `json:"blinding,omitempty" yaml:"blinding,omitempty"`

	// Allocation describes allocation concealment, when reported.
	Allocation string `json:"allocation,omitempty" yaml:"allocation,omitempty"`

	// Funding records the funding declaration, when reported.
	Funding string `json:"funding,omitempty" yaml:"funding,omitempty"`

	// Conflicts records the conflict-of-interest declaration, when reported.
	Conflicts string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// Language is the article language.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Validate checks the card's structural invariants.
func (c Card) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("card: title is required")
	}
	if c.PMID == "" && c.DOI == "" {
		return fmt.Errorf("card: at least one of pmid or doi is required")
	}
	if c.Score < 0 {
		return fmt.Errorf("card: score must be non-negative, got %g", c.Score)
	}
	if c.EffectEstimate != nil {
		if err := c.EffectEstimate.Validate(); err != nil {
			return err
		}
	}
	return nil
}
