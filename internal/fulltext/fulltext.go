// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext retrieves the article text for appraisal. Routes are
// tried in fixed order: local override, PubMed Central, Unpaywall,
// Europe PMC, the publisher link from Crossref, then the abstract.
package fulltext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/trialcast/internal/httputil"
	"github.com/pdiddy/trialcast/pkg/types"
)

// Base URLs for the retrieval routes. Declared as vars so tests can
// substitute httptest servers.
var (
	europePMCBase  = "https://www.ebi.ac.uk/europepmc/webservices/rest"
	pmcArticleBase = "https://pmc.ncbi.nlm.nih.gov/articles/"
	unpaywallBase  = "https://api.unpaywall.org/v2/"
	crossrefBase   = "https://api.crossref.org/works/"
)

const routeRetries = 2

var pdfMagic = []byte("%PDF-")

// Fetcher runs the full-text retrieval waterfall.
type Fetcher struct {
	HTTP *http.Client
	Cfg  types.FullTextConfig
}

// Fetch retrieves the best available text for the card. The abstract
// argument feeds the abstract-only fallback; route failures are reported
// to w and the next route is tried.
func (f *Fetcher) Fetch(ctx context.Context, c types.Card, abstract string, w io.Writer) (types.FullTextResult, error) {
	if f.Cfg.OverridePath != "" {
		res, err := f.fromOverride()
		if err != nil {
			return types.FullTextResult{}, err
		}
		return res, nil
	}

	if f.Cfg.AllowNetwork {
		pmcid := f.lookupPMCID(ctx, c, w)

		type route struct {
			name string
			try  func() (types.FullTextResult, error)
		}
		routes := []route{
			{"pmc", func() (types.FullTextResult, error) { return f.fromPMC(ctx, pmcid) }},
			{"unpaywall", func() (types.FullTextResult, error) { return f.fromUnpaywall(ctx, c.DOI) }},
			{"europepmc", func() (types.FullTextResult, error) { return f.fromEuropePMC(ctx, c, pmcid) }},
			{"publisher", func() (types.FullTextResult, error) { return f.fromPublisher(ctx, c.DOI) }},
		}
		for _, r := range routes {
			res, err := r.try()
			if err != nil {
				fmt.Fprintf(w, "  %s route failed: %v\n", r.name, err)
				continue
			}
			return res, nil
		}
	} else {
		fmt.Fprintf(w, "  network retrieval disabled\n")
	}

	if f.Cfg.AbstractOnlyOK && abstract != "" {
		return types.FullTextResult{Route: types.RouteAbstract, Abstract: abstract}, nil
	}
	return types.FullTextResult{}, fmt.Errorf("no full text available for %s", identifier(c))
}

// fromOverride loads a local HTML, text, or PDF file instead of any
// network retrieval.
func (f *Fetcher) fromOverride() (types.FullTextResult, error) {
	data, err := os.ReadFile(f.Cfg.OverridePath)
	if err != nil {
		return types.FullTextResult{}, fmt.Errorf("reading override file: %w", err)
	}

	res := types.FullTextResult{Route: types.RouteOverride}
	if strings.EqualFold(filepath.Ext(f.Cfg.OverridePath), ".pdf") || bytes.HasPrefix(data, pdfMagic) {
		res.PDF = data
	} else {
		res.HTML = string(data)
	}
	return res, nil
}

// lookupPMCID resolves the card's PMCID through the Europe PMC search
// API. Empty when the article is not in PubMed Central.
func (f *Fetcher) lookupPMCID(ctx context.Context, c types.Card, w io.Writer) string {
	var query string
	switch {
	case c.PMID != "":
		query = fmt.Sprintf("EXT_ID:%s AND SRC:MED", c.PMID)
	case c.DOI != "":
		query = fmt.Sprintf("DOI:%q", c.DOI)
	default:
		return ""
	}

	searchURL := europePMCBase + "/search?" + url.Values{
		"query":  {query},
		"format": {"json"},
	}.Encode()

	var parsed struct {
		ResultList struct {
			Result []struct {
				PMCID string `json:"pmcid"`
			} `json:"result"`
		} `json:"resultList"`
	}
	if err := f.getJSON(ctx, searchURL, &parsed); err != nil {
		fmt.Fprintf(w, "  PMCID lookup failed: %v\n", err)
		return ""
	}
	if len(parsed.ResultList.Result) == 0 {
		return ""
	}
	return parsed.ResultList.Result[0].PMCID
}

// fromPMC fetches from PubMed Central, trying the direct PDF rendition
// before the article HTML page.
func (f *Fetcher) fromPMC(ctx context.Context, pmcid string) (types.FullTextResult, error) {
	if pmcid == "" {
		return types.FullTextResult{}, fmt.Errorf("no PMCID")
	}

	pdfURL := pmcArticleBase + pmcid + "/pdf/"
	if body, err := f.getBody(ctx, pdfURL); err == nil && bytes.HasPrefix(body, pdfMagic) {
		return types.FullTextResult{Route: types.RoutePMC, PMCID: pmcid, OAPDFURL: pdfURL, PDF: body}, nil
	}

	body, err := f.getBody(ctx, pmcArticleBase+pmcid+"/")
	if err != nil {
		return types.FullTextResult{}, err
	}
	return types.FullTextResult{Route: types.RoutePMC, PMCID: pmcid, HTML: string(body)}, nil
}

// fromUnpaywall resolves the best open-access location through
// Unpaywall: the PDF rendition when present, the location URL as HTML
// otherwise. Requires a DOI and a configured contact email.
func (f *Fetcher) fromUnpaywall(ctx context.Context, doi string) (types.FullTextResult, error) {
	if doi == "" {
		return types.FullTextResult{}, fmt.Errorf("no DOI")
	}
	if f.Cfg.UnpaywallEmail == "" {
		return types.FullTextResult{}, fmt.Errorf("no unpaywall email configured")
	}

	var parsed struct {
		BestOALocation struct {
			URLForPDF string `json:"url_for_pdf"`
			URL       string `json:"url"`
		} `json:"best_oa_location"`
	}
	lookupURL := unpaywallBase + url.PathEscape(doi) + "?email=" + url.QueryEscape(f.Cfg.UnpaywallEmail)
	if err := f.getJSON(ctx, lookupURL, &parsed); err != nil {
		return types.FullTextResult{}, err
	}

	if pdfURL := parsed.BestOALocation.URLForPDF; pdfURL != "" {
		body, err := f.getBody(ctx, pdfURL)
		if err == nil && bytes.HasPrefix(body, pdfMagic) {
			return types.FullTextResult{Route: types.RouteUnpaywall, OAPDFURL: pdfURL, PDF: body}, nil
		}
	}

	if htmlURL := parsed.BestOALocation.URL; htmlURL != "" {
		body, err := f.getBody(ctx, htmlURL)
		if err != nil {
			return types.FullTextResult{}, err
		}
		return types.FullTextResult{Route: types.RouteUnpaywall, PublisherURL: htmlURL, HTML: string(body)}, nil
	}
	return types.FullTextResult{}, fmt.Errorf("no open-access location for %s", doi)
}

// fromEuropePMC walks the Europe PMC core record: the advertised
// full-text pdf/html links first, then the fullTextXML rendition, then
// PubMed Central again when the record carries a PMCID the earlier
// lookup missed.
func (f *Fetcher) fromEuropePMC(ctx context.Context, c types.Card, pmcid string) (types.FullTextResult, error) {
	var query string
	switch {
	case c.DOI != "":
		query = fmt.Sprintf("DOI:%q", c.DOI)
	case c.PMID != "":
		query = fmt.Sprintf("EXT_ID:%s AND SRC:MED", c.PMID)
	default:
		return types.FullTextResult{}, fmt.Errorf("no identifiers")
	}

	searchURL := europePMCBase + "/search?" + url.Values{
		"query":      {query},
		"resultType": {"core"},
		"format":     {"json"},
	}.Encode()

	var parsed struct {
		ResultList struct {
			Result []struct {
				PMCID           string `json:"pmcid"`
				FullTextURLList struct {
					FullTextURL []struct {
						DocumentType string `json:"documentType"`
						URL          string `json:"url"`
					} `json:"fullTextUrl"`
				} `json:"fullTextUrlList"`
			} `json:"result"`
		} `json:"resultList"`
	}
	if err := f.getJSON(ctx, searchURL, &parsed); err != nil {
		return types.FullTextResult{}, err
	}
	if len(parsed.ResultList.Result) == 0 {
		return types.FullTextResult{}, fmt.Errorf("no Europe PMC record for %s", identifier(c))
	}
	record := parsed.ResultList.Result[0]

	for _, link := range record.FullTextURLList.FullTextURL {
		switch link.DocumentType {
		case "pdf":
			if body, err := f.getBody(ctx, link.URL); err == nil && bytes.HasPrefix(body, pdfMagic) {
				return types.FullTextResult{Route: types.RouteEuropePMC, PMCID: record.PMCID, OAPDFURL: link.URL, PDF: body}, nil
			}
		case "html":
			if body, err := f.getBody(ctx, link.URL); err == nil {
				return types.FullTextResult{Route: types.RouteEuropePMC, PMCID: record.PMCID, HTML: string(body)}, nil
			}
		}
	}

	effective := record.PMCID
	if effective == "" {
		effective = pmcid
	}
	if effective != "" {
		if body, err := f.getBody(ctx, europePMCBase+"/"+effective+"/fullTextXML"); err == nil {
			return types.FullTextResult{Route: types.RouteEuropePMC, PMCID: effective, HTML: string(body)}, nil
		}
		if res, err := f.fromPMC(ctx, effective); err == nil {
			return res, nil
		}
	}
	return types.FullTextResult{}, fmt.Errorf("no full text at Europe PMC for %s", identifier(c))
}

// fromPublisher follows the content links in the Crossref record. The
// fetched body is sniffed, since publishers often mislabel content types.
func (f *Fetcher) fromPublisher(ctx context.Context, doi string) (types.FullTextResult, error) {
	if doi == "" {
		return types.FullTextResult{}, fmt.Errorf("no DOI")
	}

	var parsed struct {
		Message struct {
			Link []struct {
				URL         string `json:"URL"`
				ContentType string `json:"content-type"`
			} `json:"link"`
		} `json:"message"`
	}
	lookupURL := crossrefBase + url.PathEscape(doi)
	if f.Cfg.CrossrefEmail != "" {
		lookupURL += "?mailto=" + url.QueryEscape(f.Cfg.CrossrefEmail)
	}
	if err := f.getJSON(ctx, lookupURL, &parsed); err != nil {
		return types.FullTextResult{}, err
	}

	links := parsed.Message.Link
	if len(links) == 0 {
		return types.FullTextResult{}, fmt.Errorf("no content links for %s", doi)
	}

	// Prefer HTML over PDF, then take whatever is first.
	best := ""
	for _, preferred := range []string{"text/html", "application/pdf"} {
		for _, l := range links {
			if l.ContentType == preferred {
				best = l.URL
				break
			}
		}
		if best != "" {
			break
		}
	}
	if best == "" {
		best = links[0].URL
	}

	body, err := f.getBody(ctx, best)
	if err != nil {
		return types.FullTextResult{}, err
	}

	res := types.FullTextResult{Route: types.RoutePublisher, PublisherURL: best}
	if bytes.HasPrefix(body, pdfMagic) {
		res.PDF = body
	} else {
		res.HTML = string(body)
	}
	return res, nil
}

func (f *Fetcher) getBody(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := httputil.Get(ctx, f.HTTP, rawURL, f.Cfg.UserAgent, routeRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.getBody(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response from %s: %w", rawURL, err)
	}
	return nil
}

func identifier(c types.Card) string {
	if c.DOI != "" {
		return c.DOI
	}
	return "PMID " + c.PMID
}
