// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trialcast pipeline:
// the Article metadata record produced by PubMed discovery, the Card
// artifact handed from fetch to appraise, full-text retrieval results,
// and per-stage configuration.
package types
