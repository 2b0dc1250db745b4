// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialcast/internal/appraise"
	"github.com/pdiddy/trialcast/internal/card"
	"github.com/pdiddy/trialcast/internal/fulltext"
	"github.com/pdiddy/trialcast/internal/httpcache"
	"github.com/pdiddy/trialcast/internal/pubmed"
	"github.com/pdiddy/trialcast/internal/textclean"
	"github.com/pdiddy/trialcast/pkg/types"
)

const (
	defaultPromptBudget = 6000
	defaultMaxPDFPages  = 40
	defaultClaudeModel  = "claude-sonnet-4-5"
	defaultOpenAIModel  = "gpt-5-thinking"
)

var appraiseCmd = &cobra.Command{
	Use:   "appraise",
	Short: "Critically appraise the selected trial card",
	Long: `Appraise reads the trial card written by fetch, retrieves the article's
full text (PubMed Central, Unpaywall, Europe PMC, or the publisher link,
falling back to the abstract), screens card and text for CONSORT reporting
gaps, and asks the configured AI model for a 5 Rs critical appraisal. The
report is written as Markdown with the auto-detected red flags appended.`,
	RunE: runAppraise,
}

func init() {
	appraiseCmd.Flags().String("card", "out/card.yaml", "trial card to appraise (.yaml or .md)")
	appraiseCmd.Flags().String("out", "out/appraisal.md", "report destination")
	appraiseCmd.Flags().String("provider", string(types.ProviderClaude), "AI provider: claude or openai")
	appraiseCmd.Flags().String("model", "", "AI model (default depends on provider)")
	appraiseCmd.Flags().Int("budget", 0, fmt.Sprintf("token budget for full-text excerpts (default %d)", defaultPromptBudget))
	appraiseCmd.Flags().String("fulltext-override", "", "local HTML/PDF file to use instead of network retrieval")
	appraiseCmd.Flags().Bool("offline", false, "disable all network retrieval of full text")
	appraiseCmd.Flags().Bool("abstract-ok", true, "fall back to the abstract when no full text is reachable")
	appraiseCmd.Flags().Bool("red-flags", true, "append the auto-detected red flags block to the report")
	appraiseCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	appraiseCmd.Flags().String("data-dir", "data", "directory for the HTTP cache")

	rootCmd.AddCommand(appraiseCmd)
}

func appraisalConfig(cmd *cobra.Command) (types.AppraisalConfig, error) {
	provider, _ := cmd.Flags().GetString("provider")
	if !cmd.Flags().Changed("provider") && viper.GetString("appraise.provider") != "" {
		provider = viper.GetString("appraise.provider")
	}
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("appraise.model")
	}
	budget, _ := cmd.Flags().GetInt("budget")
	if budget <= 0 {
		budget = viper.GetInt("appraise.budget")
	}
	if budget <= 0 {
		budget = defaultPromptBudget
	}
	overridePath, _ := cmd.Flags().GetString("fulltext-override")
	offline, _ := cmd.Flags().GetBool("offline")
	abstractOK, _ := cmd.Flags().GetBool("abstract-ok")
	redFlags, _ := cmd.Flags().GetBool("red-flags")
	outPath, _ := cmd.Flags().GetString("out")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var apiKey string
	switch types.AIProvider(provider) {
	case types.ProviderClaude:
		apiKey = secretDefault("anthropic-api-key", "ANTHROPIC_API_KEY", "")
		if model == "" {
			model = defaultClaudeModel
		}
	case types.ProviderOpenAI:
		apiKey = secretDefault("openai-api-key", "OPENAI_API_KEY", "")
		if model == "" {
			model = defaultOpenAIModel
		}
	default:
		return types.AppraisalConfig{}, fmt.Errorf("unknown AI provider %q", provider)
	}
	if apiKey == "" {
		return types.AppraisalConfig{}, fmt.Errorf("no API key configured for provider %s", provider)
	}

	return types.AppraisalConfig{
		AIConfig: types.AIConfig{
			Provider:    types.AIProvider(provider),
			Model:       model,
			APIKey:      apiKey,
			MaxTokens:   3000,
			Temperature: 0.2,
			MaxRetries:  3,
		},
		FullText: types.FullTextConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: defaultUserAgent,
			},
			UnpaywallEmail: secretDefault("unpaywall-email", "UNPAYWALL_EMAIL", ""),
			CrossrefEmail:  secretDefault("crossref-email", "CROSSREF_EMAIL", ""),
			AllowNetwork:   !offline,
			AbstractOnlyOK: abstractOK,
			OverridePath:   overridePath,
			MaxPDFPages:    defaultMaxPDFPages,
		},
		PromptBudgetTokens: budget,
		IncludeRedFlags:    redFlags,
		OutPath:            outPath,
	}, nil
}

func runAppraise(cmd *cobra.Command, args []string) error {
	cfg, err := appraisalConfig(cmd)
	if err != nil {
		return err
	}
	cardPath, _ := cmd.Flags().GetString("card")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	c, err := card.Read(cardPath)
	if err != nil {
		return err
	}

	transport, err := httpcache.Open(dataDir, httpcache.DefaultTTL, http.DefaultTransport)
	if err != nil {
		return fmt.Errorf("opening HTTP cache: %w", err)
	}
	defer transport.Close()
	client := transport.Client(cfg.FullText.Timeout)

	abstract := fetchAbstract(ctx, client, c, cfg.FullText)

	fetcher := &fulltext.Fetcher{HTTP: client, Cfg: cfg.FullText}
	fmt.Fprintf(w, "retrieving full text for %q\n", c.Title)
	res, err := fetcher.Fetch(ctx, c, abstract, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "full text obtained via %s route\n", res.Route)

	sectioned := textclean.Section(res, cfg.FullText.MaxPDFPages)
	excerpts := textclean.Excerpts(sectioned, cfg.PromptBudgetTokens)
	contentFlags := textclean.ContentRedFlags(sectioned)

	backend, err := appraise.NewBackend(cfg.AIConfig, &http.Client{Timeout: cfg.FullText.Timeout})
	if err != nil {
		return err
	}

	result, err := appraise.Run(ctx, backend, c, excerpts, contentFlags, res.Route, cfg, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "appraisal complete: %d red flag(s) detected\n", len(result.RedFlags))
	return nil
}

// fetchAbstract pulls the abstract from PubMed to back the abstract-only
// fallback. Best effort: an empty abstract just narrows the fallback.
func fetchAbstract(ctx context.Context, client *http.Client, c types.Card, cfg types.FullTextConfig) string {
	if c.PMID == "" || !cfg.AllowNetwork {
		return ""
	}

	pm := &pubmed.Client{HTTP: client}
	articles, err := pm.FetchDetails(ctx, []string{c.PMID}, types.FetchConfig{HTTPConfig: cfg.HTTPConfig})
	if err != nil || len(articles) == 0 {
		return ""
	}
	return articles[0].Abstract
}
