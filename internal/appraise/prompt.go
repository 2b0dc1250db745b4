// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package appraise

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/trialcast/pkg/types"
)

// systemPrompt frames the model as a trial methodologist. The register
// matters: the output goes to expert clinicians, not a lay audience.
const systemPrompt = "You are a senior clinical trial methodologist in anesthesiology and perioperative medicine. Produce a rigorous, impartial critical appraisal for expert clinicians. Use structured Markdown. Be concrete; avoid hype."

// appraisalPromptTmpl is the user message template. It lays out the card
// fields, the full-text excerpts when available, and the 5 Rs framework
// the appraisal must follow.
var appraisalPromptTmpl = template.Must(template.New("appraisal").Parse(`Article Information:
{{range .Fields}}{{.Name}}: {{.Value}}
{{end}}{{if .Excerpts}}
Full-text excerpts (by section):
{{range .Excerpts}}
### {{.Name}}
{{.Value}}
{{end}}{{end}}
Use the 5 Rs framework for critical appraisal:

1. Right Question: PICO (Population, Intervention, Comparator, Outcome); novelty; biological plausibility; ethical/feasibility considerations
2. Right Population: eligibility criteria; representativeness; external validity
3. Right Study Design: randomization method; allocation concealment; blinding; centers; protocol deviations
4. Right Data & Statistics: endpoints and hierarchy (primary/secondary; patient-centered); effect size(s) with CI; clinical vs statistical significance; multiplicity/subgroups; interim looks; stopping rules; assumptions & model appropriateness
5. Right Interpretation: internal validity threats; residual confounding; generalizability to anesthesia/peri-op practice; benefit-harm balance; feasibility; cost considerations if noted

In your analysis, be sure to:
- Surface strengths and limitations explicitly
- Consider applicability to perioperative practice
- Address bias/validity considerations (randomization, allocation concealment, blinding, attrition, selective reporting)
- Discuss effect size vs p-value, CI width/precision, multiplicity/subgroups, and clinical vs statistical significance
- Include a concluding "Bottom Line for Clinicians"

Instructions:
- Include a "Citation" section with DOI and PMID from the input
- Include a concise "Bottom Line for Clinicians"
- Use Markdown formatting with section headers
- Be thorough but concise in your analysis`))

type promptField struct {
	Name  string
	Value string
}

// BuildPrompt renders the appraisal prompt from the card and the
// full-text excerpts. Empty card fields and empty sections are omitted.
func BuildPrompt(c types.Card, excerpts types.SectionedText) (Prompt, error) {
	fields := cardFields(c)

	var sections []promptField
	for _, s := range []promptField{
		{"Abstract", excerpts.Abstract},
		{"Introduction", excerpts.Introduction},
		{"Methods", excerpts.Methods},
		{"Results", excerpts.Results},
		{"Discussion", excerpts.Discussion},
		{"Conclusion", excerpts.Conclusion},
	} {
		if strings.TrimSpace(s.Value) != "" {
			sections = append(sections, s)
		}
	}

	var buf bytes.Buffer
	err := appraisalPromptTmpl.Execute(&buf, struct {
		Fields   []promptField
		Excerpts []promptField
	}{fields, sections})
	if err != nil {
		return Prompt{}, fmt.Errorf("rendering appraisal prompt: %w", err)
	}
	return Prompt{System: systemPrompt, User: buf.String()}, nil
}

func cardFields(c types.Card) []promptField {
	add := func(fields []promptField, name, value string) []promptField {
		if strings.TrimSpace(value) == "" {
			return fields
		}
		return append(fields, promptField{name, value})
	}

	var fields []promptField
	fields = add(fields, "title", c.Title)
	fields = add(fields, "journal", c.Journal)
	fields = add(fields, "date", c.Date)
	fields = add(fields, "doi", c.DOI)
	fields = add(fields, "pmid", c.PMID)
	if c.Score > 0 {
		fields = add(fields, "score", fmt.Sprintf("%g", c.Score))
	}
	fields = add(fields, "rationale", c.Rationale)
	fields = add(fields, "design", c.Design)
	fields = add(fields, "population", c.Population)
	if c.SampleSize > 0 {
		fields = add(fields, "sample_size", fmt.Sprintf("%d", c.SampleSize))
	}
	fields = add(fields, "intervention", c.Intervention)
	fields = add(fields, "comparator", c.Comparator)
	fields = add(fields, "primary_outcome", c.PrimaryOutcome)
	fields = add(fields, "key_result_text", c.KeyResultText)
	if e := c.EffectEstimate; e != nil && len(e.CI) == 2 {
		v := fmt.Sprintf("measure=%s value=%g ci=[%g, %g]", e.Measure, e.Value, e.CI[0], e.CI[1])
		if e.P != nil {
			v += fmt.Sprintf(" p=%g", *e.P)
		}
		fields = add(fields, "effect_estimate", v)
	}
	fields = add(fields, "centers", c.Centers)
	fields = add(fields, "blinding", c.Blinding)
	fields = add(fields, "allocation", c.Allocation)
	fields = add(fields, "funding", c.Funding)
	fields = add(fields, "conflicts", c.Conflicts)
	fields = add(fields, "language", c.Language)
	return fields
}
