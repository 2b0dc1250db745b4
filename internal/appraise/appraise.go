// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package appraise produces the CONSORT-oriented critical appraisal of a
// trial card: rule-based red-flag checks plus an LLM-written report.
package appraise

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/trialcast/pkg/types"
)

const defaultMaxRetries = 3

// Run builds the appraisal prompt, calls the AI backend with retries,
// and assembles the final report. Content flags from full-text parsing
// are appended after the card-level flags; the route records how the
// article text was obtained.
func Run(ctx context.Context, backend AIBackend, c types.Card, excerpts types.SectionedText, contentFlags []string, route types.FullTextRoute, cfg types.AppraisalConfig, w io.Writer) (types.AppraisalResult, error) {
	if err := c.Validate(); err != nil {
		return types.AppraisalResult{}, err
	}

	redFlags := append(CardRedFlags(c), contentFlags...)

	prompt, err := BuildPrompt(c, excerpts)
	if err != nil {
		return types.AppraisalResult{}, err
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	fmt.Fprintf(w, "appraising %q with %s\n", c.Title, cfg.Model)
	markdown, err := callWithRetry(ctx, backend, prompt, maxRetries)
	if err != nil {
		return types.AppraisalResult{}, fmt.Errorf("generating appraisal: %w", err)
	}

	if cfg.IncludeRedFlags && len(redFlags) > 0 {
		markdown = strings.TrimRight(markdown, "\n") + "\n\n## Red Flags (Auto-detected)\n"
		for _, flag := range redFlags {
			markdown += "- " + flag + "\n"
		}
	}

	if cfg.OutPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutPath), 0o755); err != nil {
			return types.AppraisalResult{}, fmt.Errorf("creating report directory: %w", err)
		}
		if err := os.WriteFile(cfg.OutPath, []byte(markdown), 0o644); err != nil {
			return types.AppraisalResult{}, fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(w, "report written to %s\n", cfg.OutPath)
	}

	return types.AppraisalResult{
		Markdown:      markdown,
		RedFlags:      redFlags,
		UsedModel:     cfg.Model,
		FullTextRoute: route,
	}, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the AI backend with exponential backoff.
func callWithRetry(ctx context.Context, backend AIBackend, p Prompt, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		markdown, err := backend.Appraise(ctx, p)
		if err == nil {
			return markdown, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
