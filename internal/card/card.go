// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package card builds, writes, and reads the structured trial card that
// carries the selected article from the fetch stage to the appraisal stage.
package card

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trialcast/pkg/types"
)

const (
	// YAMLFile is the machine-readable card written to the output directory.
	YAMLFile = "card.yaml"

	// MarkdownFile is the human-readable card written alongside it.
	MarkdownFile = "rct_card.md"
)

// FromArticle builds a card from a scored, enriched article. The
// rationale argument overrides the article's own when non-empty, so the
// selection stage can append repeat notes.
func FromArticle(a types.Article, rationale string) types.Card {
	if rationale == "" {
		rationale = a.Rationale
	}

	date := a.PubDate
	if date == "" && a.Year > 0 {
		date = fmt.Sprintf("%d", a.Year)
	}

	centers := "single-center or unreported"
	if a.Multicenter {
		centers = "multicenter"
	}

	c := types.Card{
		Title:          a.Title,
		Journal:        a.Journal,
		Date:           date,
		DOI:            a.DOI,
		PMID:           a.PMID,
		Score:          a.Score,
		Rationale:      rationale,
		Design:         a.TrialDesign,
		SampleSize:     a.SampleSize,
		Intervention:   a.Intervention,
		Comparator:     a.Comparator,
		PrimaryOutcome: a.PrimaryOutcome,
		KeyResultText:  a.EffectSummary,
		Centers:        centers,
		Language:       a.Language,
	}

	if strings.Contains(strings.ToLower(a.TrialDesign), "blind") {
		c.Blinding = blindingFromDesign(a.TrialDesign)
	}
	return c
}

func blindingFromDesign(design string) string {
	for _, term := range []string{"triple-blind", "double-blind", "single-blind"} {
		if strings.Contains(strings.ToLower(design), term) {
			return term
		}
	}
	return ""
}

// Write validates the card and writes both the YAML and the markdown
// rendition into outDir, creating it if needed. It returns the YAML path.
func Write(c types.Card, outDir string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshaling card: %w", err)
	}

	yamlPath := filepath.Join(outDir, YAMLFile)
	if err := os.WriteFile(yamlPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", YAMLFile, err)
	}

	mdPath := filepath.Join(outDir, MarkdownFile)
	if err := os.WriteFile(mdPath, []byte(Markdown(c)), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", MarkdownFile, err)
	}
	return yamlPath, nil
}

// Markdown renders the card as a markdown document with the full card as
// YAML frontmatter, so the markdown alone round-trips through Read.
func Markdown(c types.Card) string {
	var b strings.Builder

	front, _ := yaml.Marshal(c)
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	if c.Journal != "" || c.Date != "" {
		fmt.Fprintf(&b, "*%s*\n\n", strings.TrimSpace(strings.TrimSuffix(c.Journal+", "+c.Date, ", ")))
	}

	section := func(heading, body string) {
		if body == "" {
			body = "Not reported."
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", heading, body)
	}

	section("Design", c.Design)
	population := c.Population
	if population == "" && c.SampleSize > 0 {
		population = fmt.Sprintf("%d participants (%s)", c.SampleSize, c.Centers)
	}
	section("Population", population)

	arms := ""
	if c.Intervention != "" {
		arms = c.Intervention
		if c.Comparator != "" {
			arms += " vs " + c.Comparator
		}
	}
	section("Intervention", arms)
	section("Primary outcome", c.PrimaryOutcome)
	section("Key result", c.KeyResultText)
	section("Why it matters", c.Rationale)

	return b.String()
}

// Read loads a card from a .yaml file or from the frontmatter of a
// markdown card, and validates it.
func Read(path string) (types.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Card{}, fmt.Errorf("reading card: %w", err)
	}

	raw := data
	if strings.HasSuffix(path, ".md") {
		raw, err = frontmatter(data)
		if err != nil {
			return types.Card{}, fmt.Errorf("reading card %s: %w", path, err)
		}
	}

	var c types.Card
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return types.Card{}, fmt.Errorf("parsing card %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return types.Card{}, fmt.Errorf("card %s: %w", path, err)
	}
	return c, nil
}

func frontmatter(data []byte) ([]byte, error) {
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		return nil, fmt.Errorf("no YAML frontmatter")
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, fmt.Errorf("unterminated YAML frontmatter")
	}
	return []byte(rest[:end+1]), nil
}
