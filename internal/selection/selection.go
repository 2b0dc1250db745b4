// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection picks the article to feature from a ranked candidate
// list, avoiding trials that were featured before.
package selection

import (
	"context"
	"fmt"

	"github.com/pdiddy/trialcast/pkg/types"
)

// History answers whether an article was selected before.
type History interface {
	Contains(ctx context.Context, doi, pmid string) (bool, error)
}

// ErrNoCandidates is returned when the ranked list is empty.
var ErrNoCandidates = fmt.Errorf("no candidates to select from")

// Top returns the highest-ranked article not present in the history,
// with a note explaining the choice. When every candidate is a repeat,
// the overall top article is returned with a repeat note. With
// allowRepeat the history is not consulted at all and the top article
// wins outright.
func Top(ctx context.Context, ranked []types.Article, hist History, allowRepeat bool) (types.Article, string, error) {
	if len(ranked) == 0 {
		return types.Article{}, "", ErrNoCandidates
	}

	if allowRepeat {
		a := ranked[0]
		return a, a.Rationale, nil
	}

	for _, a := range ranked {
		seen, err := hist.Contains(ctx, a.DOI, a.PMID)
		if err != nil {
			return types.Article{}, "", fmt.Errorf("checking selection history: %w", err)
		}
		if !seen {
			return a, a.Rationale, nil
		}
	}

	a := ranked[0]
	return a, a.Rationale + " (repeat: all candidates previously featured)", nil
}

// ShouldWiden reports whether the search window should be widened and
// retried: no candidates survived and the configured widened window is
// larger than the one just searched.
func ShouldWiden(candidates int, searchedDays int, cfg types.FetchConfig) bool {
	return candidates == 0 && searchedDays < cfg.WidenDays
}
