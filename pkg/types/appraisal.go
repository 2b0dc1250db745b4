// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FullTextRoute identifies which retrieval route produced the full text.
type FullTextRoute string

const (
	RoutePMC       FullTextRoute = "pmc"
	RouteUnpaywall FullTextRoute = "unpaywall"
	RouteEuropePMC FullTextRoute = "europepmc"
	RoutePublisher FullTextRoute = "publisher"
	RouteAbstract  FullTextRoute = "abstract"
	RouteOverride  FullTextRoute = "override"
)

// FullTextResult holds the outcome of full-text retrieval for one article.
// Exactly one of HTML, PDF, or Abstract carries the content.
type FullTextResult struct {
	// Route records the retrieval route that succeeded.
	Route FullTextRoute `json:"route" yaml:"route"`

	// PMCID is the PubMed Central identifier, when discovered.
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// OAPDFURL is the open-access PDF URL, when a PDF was fetched.
	OAPDFURL string `json:"oa_pdf_url,omitempty" yaml:"oa_pdf_url,omitempty"`

	// PublisherURL is the landing page, when the publisher route was used.
	PublisherURL string `json:"publisher_url,omitempty" yaml:"publisher_url,omitempty"`

	// HTML is the raw HTML body, when an HTML page was fetched.
	HTML string `json:"-" yaml:"-"`

	// PDF is the raw PDF body, when a PDF was fetched.
	PDF []byte `json:"-" yaml:"-"`

	// Abstract is the abstract text, for the abstract-only fallback.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
}

// SectionedText is article text bucketed into the standard IMRaD sections.
type SectionedText struct {
	Abstract     string `json:"abstract" yaml:"abstract"`
	Introduction string `json:"introduction" yaml:"introduction"`
	Methods      string `json:"methods" yaml:"methods"`
	Results      string `json:"results" yaml:"results"`
	Discussion   string `json:"discussion" yaml:"discussion"`
	Conclusion   string `json:"conclusion" yaml:"conclusion"`
}

// IsEmpty reports whether no section holds any text.
func (s SectionedText) IsEmpty() bool {
	return s.Abstract == "" && s.Introduction == "" && s.Methods == "" &&
		s.Results == "" && s.Discussion == "" && s.Conclusion == ""
}

// AppraisalResult is the output of the appraise stage.
type AppraisalResult struct {
	// Markdown is the full critical-appraisal report.
	Markdown string `json:"markdown" yaml:"markdown"`

	// RedFlags lists the auto-detected reporting concerns, card rules first.
	RedFlags []string `json:"red_flags" yaml:"red_flags"`

	// UsedModel records the model that produced the appraisal.
	UsedModel string `json:"used_model" yaml:"used_model"`

	// FullTextRoute records how the article text was obtained.
	FullTextRoute FullTextRoute `json:"fulltext_route" yaml:"fulltext_route"`
}
