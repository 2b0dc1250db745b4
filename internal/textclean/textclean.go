// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textclean turns raw full-text content (HTML or PDF) into
// sectioned article text and token-budgeted excerpts for the appraisal
// prompt.
package textclean

import (
	"bytes"
	"compress/zlib"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/trialcast/pkg/types"
)

// sectionSynonyms maps the headers journals actually print onto the
// standard IMRaD buckets.
var sectionSynonyms = map[string][]string{
	"abstract":     {"abstract", "summary"},
	"introduction": {"introduction", "background", "rationale", "purpose"},
	"methods":      {"methods", "materials and methods", "patients and methods", "experimental procedures", "study design"},
	"results":      {"results", "findings", "outcome", "outcomes"},
	"discussion":   {"discussion", "interpretation", "clinical implications", "limitations"},
	"conclusion":   {"conclusion", "conclusions"},
}

// sectionOrder fixes lookup order so "summary" maps to abstract, not
// conclusion.
var sectionOrder = []string{"abstract", "introduction", "methods", "results", "discussion", "conclusion"}

// keyTerms drive excerpt selection toward methodologically loaded
// paragraphs.
var keyTerms = []string{
	"effect size", "confidence interval", "p-value", "subgroup",
	"blinding", "allocation", "sample size", "attrition",
	"primary outcome", "secondary outcome", "hypothesis",
}

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentPattern    = regexp.MustCompile(`(?s)<!--.*?-->`)
	chromePattern     = regexp.MustCompile(`(?is)<(nav|header|footer|aside)[^>]*>.*?</(?:nav|header|footer|aside)>`)
	mainPattern       = regexp.MustCompile(`(?is)<(?:main|article)[^>]*>(.*?)</(?:main|article)>`)
	blockEndPattern   = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|li|tr|sec|title)>|<br\s*/?>`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	hyphenPattern     = regexp.MustCompile(`(\w+)-\s*\n\s*(\w+)`)
	figTablePattern   = regexp.MustCompile(`(?i)(?:fig\.|figure|table)\s*\d+[a-z]?(?:\s*[:\-][^\n]*)?`)
	headerNumPattern  = regexp.MustCompile(`^\d+[.)]?\s*`)
	headerTailPattern = regexp.MustCompile(`\s*[:\-].*$`)
	decimalPattern    = regexp.MustCompile(`\d+\.\d+`)
	spacesPattern     = regexp.MustCompile(`[ \t]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// CleanHTML strips markup down to plain text. Block-level closing tags
// become line breaks so section headers survive as their own lines, and
// the main or article element is preferred when present.
func CleanHTML(content string) string {
	content = scriptPattern.ReplaceAllString(content, "")
	content = stylePattern.ReplaceAllString(content, "")
	content = commentPattern.ReplaceAllString(content, "")
	content = chromePattern.ReplaceAllString(content, "")

	if m := mainPattern.FindStringSubmatch(content); m != nil {
		content = m[1]
	}

	content = blockEndPattern.ReplaceAllString(content, "\n")
	content = tagPattern.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)
	return normalizeWhitespace(content)
}

// ExtractPDFText pulls text out of a PDF body. This is a best-effort
// extraction: it inflates the compressed content streams and collects
// the string operands of the text-show operators. maxPages caps the
// number of content streams read.
func ExtractPDFText(pdf []byte, maxPages int) string {
	if maxPages <= 0 {
		maxPages = 40
	}

	var parts []string
	rest := pdf
	streams := 0
	for streams < maxPages {
		start := bytes.Index(rest, []byte("stream"))
		if start < 0 {
			break
		}
		chunk := rest[start+len("stream"):]
		chunk = bytes.TrimLeft(chunk, "\r\n")
		end := bytes.Index(chunk, []byte("endstream"))
		if end < 0 {
			break
		}

		if text := streamText(chunk[:end]); text != "" {
			parts = append(parts, text)
			streams++
		}
		rest = chunk[end+len("endstream"):]
	}
	return normalizeWhitespace(strings.Join(parts, "\n"))
}

// streamText inflates one FlateDecode content stream and collects its
// parenthesized string operands. Uncompressed streams are scanned directly.
func streamText(stream []byte) string {
	data := stream
	if r, err := zlib.NewReader(bytes.NewReader(stream)); err == nil {
		if inflated, err := io.ReadAll(r); err == nil {
			data = inflated
		}
		r.Close()
	}

	var b strings.Builder
	depth := 0
	escaped := false
	for _, c := range data {
		switch {
		case escaped:
			escaped = false
			if depth > 0 && c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			}
		case c == '\\':
			escaped = true
		case c == '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth > 0 {
				b.WriteByte(c)
			} else if depth == 0 {
				b.WriteByte(' ')
			}
		case depth > 0:
			if c == '\n' || c == '\r' || (c >= 0x20 && c < 0x7f) {
				b.WriteByte(c)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Section buckets a retrieval result into IMRaD sections. HTML wins over
// PDF; an abstract-only result fills just the abstract bucket.
func Section(res types.FullTextResult, maxPDFPages int) types.SectionedText {
	switch {
	case res.HTML != "":
		return SectionText(CleanHTML(res.HTML))
	case len(res.PDF) > 0:
		return SectionText(ExtractPDFText(res.PDF, maxPDFPages))
	case res.Abstract != "":
		return types.SectionedText{Abstract: res.Abstract}
	default:
		return types.SectionedText{}
	}
}

// SectionText assigns each line of cleaned text to the IMRaD section
// whose header most recently preceded it. Text before any header lands
// in the abstract.
func SectionText(text string) types.SectionedText {
	text = hyphenPattern.ReplaceAllString(text, "$1$2")
	text = figTablePattern.ReplaceAllString(text, "")

	buckets := map[string][]string{}
	current := "abstract"
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(buckets[current]) > 0 {
				buckets[current] = append(buckets[current], "")
			}
			continue
		}
		if section := mapSectionHeader(line); section != "" {
			current = section
			continue
		}
		buckets[current] = append(buckets[current], line)
	}

	join := func(name string) string {
		return strings.TrimSpace(strings.Join(buckets[name], "\n"))
	}
	return types.SectionedText{
		Abstract:     join("abstract"),
		Introduction: join("introduction"),
		Methods:      join("methods"),
		Results:      join("results"),
		Discussion:   join("discussion"),
		Conclusion:   join("conclusion"),
	}
}

// mapSectionHeader maps a line onto an IMRaD section name, or "" when
// the line is body text. Only short lines qualify as headers.
func mapSectionHeader(line string) string {
	if len(line) > 60 {
		return ""
	}
	h := strings.ToLower(strings.TrimSpace(line))
	h = headerNumPattern.ReplaceAllString(h, "")
	h = headerTailPattern.ReplaceAllString(h, "")
	if h == "" {
		return ""
	}

	for _, section := range sectionOrder {
		for _, syn := range sectionSynonyms[section] {
			if h == syn || strings.HasPrefix(h, syn+" ") || strings.HasSuffix(h, " "+syn) {
				return section
			}
		}
	}
	return ""
}

// EstimateTokens is the rough 4-characters-per-token estimate used for
// prompt budgeting.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// budgetShares allocates the prompt budget across sections, weighted
// toward methods and results.
var budgetShares = []struct {
	section string
	share   float64
}{
	{"abstract", 0.10},
	{"introduction", 0.10},
	{"methods", 0.25},
	{"results", 0.35},
	{"discussion", 0.15},
	{"conclusion", 0.05},
}

// Excerpts selects the most appraisal-relevant paragraphs of each
// section within the overall token budget.
func Excerpts(s types.SectionedText, maxTokens int) types.SectionedText {
	get := map[string]string{
		"abstract":     s.Abstract,
		"introduction": s.Introduction,
		"methods":      s.Methods,
		"results":      s.Results,
		"discussion":   s.Discussion,
		"conclusion":   s.Conclusion,
	}

	out := map[string]string{}
	for _, bs := range budgetShares {
		out[bs.section] = selectExcerpts(get[bs.section], int(float64(maxTokens)*bs.share))
	}
	return types.SectionedText{
		Abstract:     out["abstract"],
		Introduction: out["introduction"],
		Methods:      out["methods"],
		Results:      out["results"],
		Discussion:   out["discussion"],
		Conclusion:   out["conclusion"],
	}
}

// selectExcerpts greedily takes the highest-scoring paragraphs that fit
// the allocation, truncating the last one when a meaningful tail fits.
func selectExcerpts(section string, allocated int) string {
	if section == "" || allocated <= 0 {
		return ""
	}

	paragraphs := strings.Split(section, "\n\n")
	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sc := 0.0
		lower := strings.ToLower(p)
		for _, term := range keyTerms {
			if strings.Contains(lower, term) {
				sc++
			}
		}
		if decimalPattern.MatchString(p) {
			sc += 0.5
		}
		ranked = append(ranked, scored{p, sc})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var selected []string
	used := 0
	for _, r := range ranked {
		t := EstimateTokens(r.text)
		if used+t <= allocated {
			selected = append(selected, r.text)
			used += t
			continue
		}
		if remaining := allocated - used; remaining > 10 {
			cut := remaining * 4
			for cut > 0 && !utf8.RuneStart(r.text[cut]) {
				cut--
			}
			selected = append(selected, r.text[:cut]+"...")
		}
		break
	}
	return strings.Join(selected, "\n\n")
}

// ContentRedFlags checks the parsed full text for CONSORT reporting
// gaps that the card-level rules cannot see.
func ContentRedFlags(s types.SectionedText) []string {
	var flags []string
	methods := strings.ToLower(s.Methods)
	results := strings.ToLower(s.Results)

	if strings.Contains(methods, "random") && !strings.Contains(methods, "allocation") {
		flags = append(flags, "Missing CONSORT element: allocation concealment not mentioned")
	}
	if methods != "" && !strings.Contains(methods, "blinding") && !strings.Contains(methods, "masking") && !strings.Contains(methods, "blind") {
		flags = append(flags, "Missing CONSORT element: blinding procedures not described")
	}
	if strings.Contains(methods, "small sample") && strings.Contains(results, "precise estimate") {
		flags = append(flags, "Potential inconsistency: small sample size with precise estimates claimed")
	}
	if strings.Count(results, "outcome") > 3 && !strings.Contains(results, "primary outcome") {
		flags = append(flags, "Multiple outcomes reported without clear primary outcome designation")
	}
	if strings.Contains(results, "subgroup") && !strings.Contains(results, "predefined") && !strings.Contains(results, "a priori") {
		flags = append(flags, "Subgroup analyses presented without stated a priori plan")
	}
	return flags
}

// normalizeWhitespace collapses runs of spaces and blank lines while
// preserving line structure for the sectioner.
func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spacesPattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")
	text = blankLinePattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
