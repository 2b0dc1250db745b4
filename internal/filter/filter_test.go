// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/pdiddy/trialcast/pkg/types"
)

func rctArticle() types.Article {
	return types.Article{
		Title:    "Dexmedetomidine versus propofol: a randomized controlled trial",
		Abstract: "We randomly assigned 240 patients undergoing hip surgery to dexmedetomidine or placebo.",
		Journal:  "British Journal of Anaesthesia",
		PMID:     "38887766",
		DOI:      "10.1016/j.bja.2026.04.012",
		Language: "eng",
		MeshTerms: []string{
			"Anesthesia", "Humans", "Pain, Postoperative",
		},
	}
}

func TestIsRCT(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		abstract string
		want     bool
	}{
		{
			"explicit title",
			"A randomized trial of propofol",
			"",
			true,
		},
		{
			"two abstract keywords",
			"Sedation depth and delirium",
			"Patients were randomly assigned in this controlled trial.",
			true,
		},
		{
			"one abstract keyword is not enough",
			"Sedation depth and delirium",
			"A placebo arm was considered.",
			false,
		},
		{
			"observational study",
			"A cohort study of sedation depth",
			"We observed outcomes over 12 months.",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := types.Article{Title: tt.title, Abstract: tt.abstract}
			if got := IsRCT(a); got != tt.want {
				t.Errorf("IsRCT() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHumanStudy(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Article)
		want    bool
	}{
		{"clinical trial", func(a *types.Article) {}, true},
		{
			"animal mesh only",
			func(a *types.Article) {
				a.MeshTerms = []string{"Mice", "Rodentia"}
				a.Abstract = "We anesthetized 40 mice."
				a.Title = "Isoflurane dosing in a mouse model"
			},
			false,
		},
		{
			"animal text but human text too",
			func(a *types.Article) {
				a.Abstract = "Unlike prior rat studies, we enrolled 100 patients."
			},
			true,
		},
		{
			"no animal wording at all",
			func(a *types.Article) {
				a.MeshTerms = nil
				a.Abstract = "Blood pressure was recorded during induction."
				a.Title = "Hypotension during induction"
			},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := rctArticle()
			tt.mutate(&a)
			if got := IsHumanStudy(a); got != tt.want {
				t.Errorf("IsHumanStudy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAnesthesiaRelated(t *testing.T) {
	a := rctArticle()
	if !IsAnesthesiaRelated(a) {
		t.Error("anesthesia MeSH term should match")
	}

	a.MeshTerms = nil
	a.Title = "Tracheal intubation first-pass success"
	a.Abstract = ""
	if !IsAnesthesiaRelated(a) {
		t.Error("intubation in title should match")
	}

	a.Title = "Statin adherence in primary care"
	if IsAnesthesiaRelated(a) {
		t.Error("unrelated article should not match")
	}
}

func TestIsPreferredLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		{"eng", true},
		{"English", true},
		{"fre", true},
		{"French", true},
		{"ger", false},
		{"", false},
	}
	for _, tt := range tests {
		a := types.Article{Language: tt.lang}
		if got := IsPreferredLanguage(a); got != tt.want {
			t.Errorf("IsPreferredLanguage(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}

func TestIsProtocolOrLetter(t *testing.T) {
	a := rctArticle()
	a.Title = "Study protocol for a randomized trial of propofol"

	if !IsProtocolOrLetter(a, types.FetchConfig{}) {
		t.Error("protocol should be flagged by default")
	}
	if IsProtocolOrLetter(a, types.FetchConfig{AllowProtocols: true}) {
		t.Error("protocol should pass when allowed")
	}
}

func TestIsPediatricOnly(t *testing.T) {
	a := rctArticle()
	a.Title = "Caudal block in children undergoing herniotomy"

	if IsPediatricOnly(a, types.FetchConfig{AllowPediatric: true}) {
		t.Error("pediatric should pass when allowed")
	}
	if !IsPediatricOnly(a, types.FetchConfig{AllowPediatric: false}) {
		t.Error("pediatric should be flagged when disallowed")
	}
}

func TestDeduplicate(t *testing.T) {
	a := rctArticle()
	sameDOI := a
	sameDOI.PMID = "99999999"
	samePMID := a
	samePMID.DOI = ""
	other := rctArticle()
	other.PMID = "11111111"
	other.DOI = "10.1000/other"

	unique := Deduplicate([]types.Article{a, sameDOI, samePMID, other})
	if len(unique) != 2 {
		t.Fatalf("len(unique) = %d, want 2", len(unique))
	}
	if unique[0].PMID != a.PMID || unique[1].PMID != other.PMID {
		t.Errorf("unexpected survivors: %v", []string{unique[0].PMID, unique[1].PMID})
	}
}

func TestApply(t *testing.T) {
	good := rctArticle()

	nonRCT := rctArticle()
	nonRCT.PMID = "2"
	nonRCT.DOI = ""
	nonRCT.Title = "A cohort study of sedation"
	nonRCT.Abstract = "We observed outcomes."

	german := rctArticle()
	german.PMID = "3"
	german.DOI = ""
	german.Language = "ger"

	kept := Apply([]types.Article{good, nonRCT, german}, types.FetchConfig{AllowPediatric: true})
	if len(kept) != 1 {
		t.Fatalf("len(kept) = %d, want 1", len(kept))
	}
	if kept[0].PMID != good.PMID {
		t.Errorf("kept PMID = %q, want %q", kept[0].PMID, good.PMID)
	}
}
