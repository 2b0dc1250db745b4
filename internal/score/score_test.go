// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"strings"
	"testing"

	"github.com/pdiddy/trialcast/pkg/types"
)

func TestArticle(t *testing.T) {
	tests := []struct {
		name          string
		article       types.Article
		wantScore     float64
		wantRationale string
	}{
		{
			"nothing stands out",
			types.Article{Title: "A randomized trial", Journal: "Obscure Quarterly"},
			0,
			"no standout features",
		},
		{
			"large multicenter",
			types.Article{SampleSize: 812, Multicenter: true},
			4.0,
			"large sample size (>500); multicenter study",
		},
		{
			"moderate sample",
			types.Article{SampleSize: 150},
			1.5,
			"moderate sample size (>100)",
		},
		{
			"patient-centered outcome",
			types.Article{PrimaryOutcome: "Pain score at 24 hours"},
			1.5,
			"patient-centered outcome",
		},
		{
			"actionable intervention",
			types.Article{Intervention: "Adductor canal block"},
			1.5,
			"clinically actionable intervention",
		},
		{
			"high-quality journal",
			types.Article{Journal: "British Journal of Anaesthesia"},
			2.0,
			"high-quality journal",
		},
		{
			"high-quality regional journal",
			types.Article{Journal: "Middle East Journal of Anesthesiology"},
			2.0,
			"high-quality journal",
		},
		{
			"high-quality case report venue",
			types.Article{Journal: "A & A Case Reports"},
			2.0,
			"high-quality journal",
		},
		{
			"high-quality journal UK spelling",
			types.Article{Journal: "Anaesthesia, Pain & Intensive Care"},
			2.0,
			"high-quality journal",
		},
		{
			"quantified effect percentage",
			types.Article{EffectSummary: "Delirium fell from 22% to 11%."},
			1.0,
			"quantified effect",
		},
		{
			"quantified effect direction",
			types.Article{EffectSummary: "Scores were 1.8 lower with the block."},
			1.0,
			"quantified effect",
		},
		{
			"everything at once",
			types.Article{
				SampleSize:     640,
				Multicenter:    true,
				PrimaryOutcome: "90-day mortality",
				Intervention:   "goal-directed fluid therapy",
				Journal:        "Anesthesiology",
				EffectSummary:  "Mortality was 4.2% versus 6.9%.",
			},
			10.0,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotScore, gotRationale := Article(tt.article)
			if gotScore != tt.wantScore {
				t.Errorf("score = %v, want %v", gotScore, tt.wantScore)
			}
			if tt.wantRationale != "" && gotRationale != tt.wantRationale {
				t.Errorf("rationale = %q, want %q", gotRationale, tt.wantRationale)
			}
		})
	}
}

func TestArticle_FullRationaleOrder(t *testing.T) {
	_, rationale := Article(types.Article{
		SampleSize:     640,
		Multicenter:    true,
		PrimaryOutcome: "90-day mortality",
		Intervention:   "goal-directed fluid therapy",
		Journal:        "Anesthesiology",
		EffectSummary:  "Mortality was 4.2% versus 6.9%.",
	})

	parts := strings.Split(rationale, "; ")
	want := []string{
		"large sample size (>500)",
		"multicenter study",
		"patient-centered outcome",
		"clinically actionable intervention",
		"high-quality journal",
		"quantified effect",
	}
	if len(parts) != len(want) {
		t.Fatalf("rationale parts = %d, want %d (%q)", len(parts), len(want), rationale)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("parts[%d] = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestRankStable(t *testing.T) {
	articles := []types.Article{
		{PMID: "1", Score: 2.0},
		{PMID: "2", Score: 5.5},
		{PMID: "3", Score: 2.0},
		{PMID: "4", Score: 7.0},
	}

	ranked := Rank(articles)

	wantOrder := []string{"4", "2", "1", "3"}
	for i, pmid := range wantOrder {
		if ranked[i].PMID != pmid {
			t.Errorf("ranked[%d].PMID = %q, want %q", i, ranked[i].PMID, pmid)
		}
	}
}

func TestAll(t *testing.T) {
	articles := []types.Article{
		{SampleSize: 600},
		{Journal: "Anaesthesia"},
	}

	out := All(articles)

	if out[0].Score != 3.0 || out[1].Score != 2.0 {
		t.Errorf("scores = %v, %v", out[0].Score, out[1].Score)
	}
	if out[0].Rationale == "" || out[1].Rationale == "" {
		t.Error("rationales should be populated")
	}
}
