// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialcast/internal/card"
	"github.com/pdiddy/trialcast/internal/enrich"
	"github.com/pdiddy/trialcast/internal/filter"
	"github.com/pdiddy/trialcast/internal/history"
	"github.com/pdiddy/trialcast/internal/httpcache"
	"github.com/pdiddy/trialcast/internal/pubmed"
	"github.com/pdiddy/trialcast/internal/score"
	"github.com/pdiddy/trialcast/internal/selection"
	"github.com/pdiddy/trialcast/pkg/types"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultUserAgent  = "trialcast/0.1"
	defaultRecentDays = 180
	defaultWidenDays  = 365
	defaultMaxResults = 200
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Find and select a recent anesthesia RCT, writing its card",
	Long: `Fetch searches PubMed for randomized controlled trials in anesthesia and
perioperative medicine published within the recent window, screens them down
to human RCT reports, scores them for podcast interestingness, and selects
the top candidate that has not been featured before. When every candidate
was featured already, the top one is repeated with a note. The selected trial is
written as a structured card (card.yaml and rct_card.md) for the appraise
stage, and recorded in the selection history.

When the window yields no candidates, the search is retried once with the
widened window.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("days", 0, fmt.Sprintf("publication window in days (default %d)", defaultRecentDays))
	fetchCmd.Flags().Int("widen-days", 0, fmt.Sprintf("widened window when the search comes up empty (default %d)", defaultWidenDays))
	fetchCmd.Flags().Int("max-results", 0, fmt.Sprintf("maximum PMIDs fetched per search (default %d)", defaultMaxResults))
	fetchCmd.Flags().String("extra-query", "", "additional PubMed query ANDed onto the base query")
	fetchCmd.Flags().Bool("allow-protocols", false, "admit protocol papers and letters")
	fetchCmd.Flags().Bool("allow-pediatric", true, "admit pediatric-only studies")
	fetchCmd.Flags().Bool("allow-repeat", false, "ignore the selection history and pick the top candidate outright")
	fetchCmd.Flags().Bool("json", false, "print the selected article as JSON on stdout")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().String("data-dir", "data", "directory for the HTTP cache, history, and candidate dumps")
	fetchCmd.Flags().String("out-dir", "out", "directory receiving the card")

	rootCmd.AddCommand(fetchCmd)
}

func fetchConfig(cmd *cobra.Command) types.FetchConfig {
	// Flags win over the config file, which wins over the built-in default.
	intFlag := func(name, viperKey string, fallback int) int {
		if v, _ := cmd.Flags().GetInt(name); v > 0 {
			return v
		}
		if v := viper.GetInt(viperKey); v > 0 {
			return v
		}
		return fallback
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	extraQuery, _ := cmd.Flags().GetString("extra-query")
	allowProtocols, _ := cmd.Flags().GetBool("allow-protocols")
	allowPediatric, _ := cmd.Flags().GetBool("allow-pediatric")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	outDir, _ := cmd.Flags().GetString("out-dir")

	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		RecentDays:     intFlag("days", "fetch.recent_days", defaultRecentDays),
		WidenDays:      intFlag("widen-days", "fetch.widen_days", defaultWidenDays),
		MaxResults:     intFlag("max-results", "fetch.max_results", defaultMaxResults),
		AllowProtocols: allowProtocols,
		AllowPediatric: allowPediatric,
		ExtraQuery:     extraQuery,
		NCBIAPIKey:     secretDefault("ncbi-api-key", "NCBI_API_KEY", ""),
		DataDir:        dataDir,
		OutDir:         outDir,
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := fetchConfig(cmd)
	allowRepeat, _ := cmd.Flags().GetBool("allow-repeat")
	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	// With --json, stdout carries only the selected article.
	w := cmd.OutOrStdout()
	if asJSON {
		w = cmd.ErrOrStderr()
	}

	transport, err := httpcache.Open(cfg.DataDir, httpcache.DefaultTTL, http.DefaultTransport)
	if err != nil {
		return fmt.Errorf("opening HTTP cache: %w", err)
	}
	defer transport.Close()
	client := transport.Client(cfg.Timeout)

	ranked, err := discoverCandidates(ctx, client, cfg, w)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		return fmt.Errorf("no eligible RCTs found in the last %d days", cfg.WidenDays)
	}

	if err := dumpArticles(cfg.DataDir, "candidates", ranked); err != nil {
		return err
	}

	hist, err := history.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening selection history: %w", err)
	}
	defer hist.Close()

	selected, rationale, err := selection.Top(ctx, ranked, hist, allowRepeat)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "selected %q (score %.1f: %s)\n", selected.Title, selected.Score, rationale)

	if err := dumpArticles(cfg.DataDir, "selected", []types.Article{selected}); err != nil {
		return err
	}

	c := card.FromArticle(selected, rationale)
	cardPath, err := card.Write(c, cfg.OutDir)
	if err != nil {
		return fmt.Errorf("writing card: %w", err)
	}
	fmt.Fprintf(w, "card written to %s\n", cardPath)

	entry := history.Entry{
		DOI:       selected.DOI,
		PMID:      selected.PMID,
		Title:     selected.Title,
		Journal:   selected.Journal,
		Score:     selected.Score,
		Rationale: rationale,
	}
	if err := hist.Add(ctx, entry); err != nil {
		return fmt.Errorf("recording selection: %w", err)
	}

	if asJSON {
		data, err := json.MarshalIndent(selected, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling selected article: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}

// discoverCandidates runs search, filter, enrich, score, rank. When the
// recent window yields nothing, the widened window is tried once.
func discoverCandidates(ctx context.Context, client *http.Client, cfg types.FetchConfig, w io.Writer) ([]types.Article, error) {
	pm := &pubmed.Client{HTTP: client}
	query := pubmed.BuildQuery(cfg.ExtraQuery)

	days := cfg.RecentDays
	for {
		fmt.Fprintf(w, "searching PubMed (last %d days)\n", days)

		pmids, err := pm.Search(ctx, query, days, cfg)
		if err != nil {
			return nil, fmt.Errorf("searching PubMed: %w", err)
		}
		fmt.Fprintf(w, "found %d PMIDs\n", len(pmids))

		articles, err := pm.FetchDetails(ctx, pmids, cfg)
		if err != nil {
			return nil, fmt.Errorf("fetching article details: %w", err)
		}

		kept := filter.Apply(articles, cfg)
		fmt.Fprintf(w, "%d candidates after filtering\n", len(kept))

		if selection.ShouldWiden(len(kept), days, cfg) {
			fmt.Fprintf(w, "no candidates; widening window to %d days\n", cfg.WidenDays)
			days = cfg.WidenDays
			continue
		}

		kept = enrich.Apply(kept)
		return score.Rank(score.All(kept)), nil
	}
}

// dumpArticles writes a dated JSON dump of the articles into dataDir for
// inspection and reproducibility.
func dumpArticles(dataDir, stem string, articles []types.Article) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, fmt.Sprintf("%s_%s.json", stem, time.Now().Format("2006-01-02")))
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s dump: %w", stem, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s dump: %w", stem, err)
	}
	return nil
}
