// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trialcast/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the fetch stage (PubMed discovery and
// card selection).
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RecentDays is the publication-date window searched (default 180).
	RecentDays int `json:"recent_days" yaml:"recent_days"`

	// WidenDays is the window used when the initial search yields no
	// candidates (default 365).
	WidenDays int `json:"widen_days" yaml:"widen_days"`

	// MaxResults is the maximum number of PMIDs fetched per search (default 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// AllowProtocols admits protocol papers and letters (default false).
	AllowProtocols bool `json:"allow_protocols" yaml:"allow_protocols"`

	// AllowPediatric admits pediatric-only studies (default true).
	AllowPediatric bool `json:"allow_pediatric" yaml:"allow_pediatric"`

	// ExtraQuery is ANDed onto the base PubMed query when set.
	ExtraQuery string `json:"extra_query,omitempty" yaml:"extra_query,omitempty"`

	// NCBIAPIKey raises E-utilities rate limits when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// DataDir holds the HTTP cache, selection history, and candidate dumps
	// (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// OutDir receives the selected card (default "out").
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// FullTextConfig holds settings for full-text retrieval during appraisal.
type FullTextConfig struct {
	HTTPConfig `yaml:",inline"`

	// UnpaywallEmail enables the Unpaywall route. Empty disables it.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`

	// CrossrefEmail is sent as mailto on Crossref requests for
	// polite-pool access.
	CrossrefEmail string `json:"crossref_email,omitempty" yaml:"crossref_email,omitempty"`

	// AllowNetwork gates all network routes. When false only OverridePath
	// can supply full text.
	AllowNetwork bool `json:"allow_network" yaml:"allow_network"`

	// AbstractOnlyOK permits falling back to the abstract when no full
	// text is reachable (default true).
	AbstractOnlyOK bool `json:"abstract_only_ok" yaml:"abstract_only_ok"`

	// OverridePath points at a local HTML or text file used instead of
	// any network retrieval.
	OverridePath string `json:"override_path,omitempty" yaml:"override_path,omitempty"`

	// MaxPDFPages caps PDF text extraction (default 40).
	MaxPDFPages int `json:"max_pdf_pages" yaml:"max_pdf_pages"`
}

// AIProvider selects the LLM API used for appraisal.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderOpenAI AIProvider = "openai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the API: claude or openai.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens bounds the generated appraisal (default 3000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the sampling temperature (default 0.2).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AppraisalConfig holds settings for the appraise stage.
type AppraisalConfig struct {
	AIConfig `yaml:",inline"`

	// FullText configures full-text retrieval.
	FullText FullTextConfig `json:"fulltext" yaml:"fulltext"`

	// PromptBudgetTokens bounds the full-text excerpts included in the
	// appraisal prompt (default 6000).
	PromptBudgetTokens int `json:"prompt_budget_tokens" yaml:"prompt_budget_tokens"`

	// IncludeRedFlags appends the auto-detected red-flags block to the
	// report (default true).
	IncludeRedFlags bool `json:"include_red_flags" yaml:"include_red_flags"`

	// OutPath is the report destination (default "out/appraisal.md").
	OutPath string `json:"out_path" yaml:"out_path"`
}

// PipelineConfig groups the stage configurations.
type PipelineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Appraisal AppraisalConfig `json:"appraisal" yaml:"appraisal"`
}
