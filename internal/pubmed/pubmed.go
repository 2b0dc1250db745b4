// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities API for recent trial reports.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/trialcast/internal/httputil"
	"github.com/pdiddy/trialcast/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// efetchIDLimit is the maximum number of IDs EFetch accepts per request.
const efetchIDLimit = 10000

// Client queries PubMed.
type Client struct {
	HTTP *http.Client
}

// Search runs an ESearch restricted to publication dates within the last
// days days and returns the matching PMIDs. An empty result is not an error.
func (c *Client) Search(ctx context.Context, query string, days int, cfg types.FetchConfig) ([]string, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmax":   {fmt.Sprintf("%d", cfg.MaxResults)},
		"retmode":  {"json"},
		"datetype": {"pdat"},
		"reldate":  {fmt.Sprintf("%d", days)},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	resp, err := httputil.Get(ctx, c.HTTP, esearchBase+"?"+params.Encode(), cfg.UserAgent, 0)
	if err != nil {
		return nil, fmt.Errorf("ESearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESearch returned HTTP %d", resp.StatusCode)
	}

	var er esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing ESearch response: %w", err)
	}
	return er.Result.IDList, nil
}

// FetchDetails runs an EFetch for the given PMIDs and parses the article
// records. Articles that fail to parse are dropped, not fatal. An empty
// PMID list returns an empty slice without a request.
func (c *Client) FetchDetails(ctx context.Context, pmids []string, cfg types.FetchConfig) ([]types.Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}
	if len(pmids) > efetchIDLimit {
		pmids = pmids[:efetchIDLimit]
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	resp, err := httputil.Get(ctx, c.HTTP, efetchBase+"?"+params.Encode(), cfg.UserAgent, 0)
	if err != nil {
		return nil, fmt.Errorf("EFetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EFetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing EFetch response: %w", err)
	}

	var articles []types.Article
	for _, rec := range set.Articles {
		a, ok := parseArticle(rec)
		if !ok {
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// parseArticle converts one PubmedArticle record. Records without a PMID
// are rejected.
func parseArticle(rec pubmedArticle) (types.Article, bool) {
	pmid := strings.TrimSpace(rec.Citation.PMID)
	if pmid == "" {
		return types.Article{}, false
	}

	art := rec.Citation.Article

	a := types.Article{
		Title:    strings.TrimSpace(art.Title),
		Abstract: joinAbstract(art.Abstract.Sections),
		Journal:  strings.TrimSpace(art.Journal.Title),
		PMID:     pmid,
		URL:      "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
		Language: strings.TrimSpace(art.Language),
	}
	if a.Language == "" {
		a.Language = "English"
	}

	if y := strings.TrimSpace(art.Journal.Issue.PubDate.Year); y != "" {
		a.PubDate = y
		fmt.Sscanf(y, "%d", &a.Year)
	}
	if m := strings.TrimSpace(art.Journal.Issue.PubDate.Month); m != "" && a.PubDate != "" {
		a.PubDate = a.PubDate + " " + m
	}

	for _, au := range art.Authors {
		last := strings.TrimSpace(au.LastName)
		fore := strings.TrimSpace(au.ForeName)
		switch {
		case last != "" && fore != "":
			a.Authors = append(a.Authors, fore+" "+last)
		case last != "":
			a.Authors = append(a.Authors, last)
		}
	}

	for _, id := range rec.Data.ArticleIDs {
		if id.IDType == "doi" {
			a.DOI = strings.TrimSpace(id.Value)
		}
	}

	for _, mh := range rec.Citation.MeshHeadings {
		if name := strings.TrimSpace(mh.Descriptor); name != "" {
			a.MeshTerms = append(a.MeshTerms, name)
		}
	}

	return a, true
}

// joinAbstract flattens labeled abstract sections into one string, keeping
// the labels ("METHODS: ...") since the filters key off that wording.
func joinAbstract(sections []abstractText) string {
	var parts []string
	for _, s := range sections {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if label := strings.TrimSpace(s.Label); label != "" {
			text = label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// ESearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// EFetch XML structures (the subset of PubmedArticleSet the pipeline uses).
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
	Data     pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID         string        `xml:"PMID"`
	Article      articleRecord `xml:"Article"`
	MeshHeadings []meshHeading `xml:"MeshHeadingList>MeshHeading"`
}

type articleRecord struct {
	Title    string         `xml:"ArticleTitle"`
	Abstract abstractRecord `xml:"Abstract"`
	Journal  journalRecord  `xml:"Journal"`
	Authors  []authorRecord `xml:"AuthorList>Author"`
	Language string         `xml:"Language"`
}

type abstractRecord struct {
	Sections []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type journalRecord struct {
	Title string       `xml:"Title"`
	Issue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
}

type authorRecord struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type meshHeading struct {
	Descriptor string `xml:"DescriptorName"`
}

type pubmedData struct {
	ArticleIDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}
