// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/trialcast/pkg/types"
)

func testCfg() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "trialcast-test/0.1",
		},
		RecentDays: 180,
		MaxResults: 200,
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		extra    string
		contains []string
	}{
		{"base", "", []string{"anesthesia", "randomized OR randomised"}},
		{"extra terms", "propofol", []string{"anesthesia", "(propofol)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQuery(tt.extra)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("BuildQuery(%q) missing %q in %q", tt.extra, want, got)
				}
			}
		})
	}
}

const sampleESearchJSON = `{
  "esearchresult": {
    "count": "3",
    "idlist": ["38887766", "38887767", "38887768"]
  }
}`

func TestSearch(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		io.WriteString(w, sampleESearchJSON)
	}))
	defer ts.Close()

	prev := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = prev }()

	cfg := testCfg()
	cfg.NCBIAPIKey = "nk_test"
	client := &Client{HTTP: ts.Client()}

	pmids, err := client.Search(context.Background(), "propofol AND randomized", 180, cfg)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(pmids) != 3 {
		t.Fatalf("len(pmids) = %d, want 3", len(pmids))
	}
	if pmids[0] != "38887766" {
		t.Errorf("pmids[0] = %q, want 38887766", pmids[0])
	}
	if got := gotQuery["reldate"]; len(got) != 1 || got[0] != "180" {
		t.Errorf("reldate = %v, want [180]", got)
	}
	if got := gotQuery["datetype"]; len(got) != 1 || got[0] != "pdat" {
		t.Errorf("datetype = %v, want [pdat]", got)
	}
	if got := gotQuery["api_key"]; len(got) != 1 || got[0] != "nk_test" {
		t.Errorf("api_key = %v, want [nk_test]", got)
	}
}

func TestSearchEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"esearchresult": {"count": "0", "idlist": []}}`)
	}))
	defer ts.Close()

	prev := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = prev }()

	client := &Client{HTTP: ts.Client()}
	pmids, err := client.Search(context.Background(), "q", 180, testCfg())
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(pmids) != 0 {
		t.Errorf("len(pmids) = %d, want 0", len(pmids))
	}
}

func TestSearchServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	prev := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = prev }()

	client := &Client{HTTP: ts.Client()}
	if _, err := client.Search(context.Background(), "q", 180, testCfg()); err == nil {
		t.Error("Search() should fail on HTTP 500")
	}
}

const sampleEFetchXML = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">38887766</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate><Year>2026</Year><Month>Jun</Month></PubDate>
          </JournalIssue>
          <Title>British Journal of Anaesthesia</Title>
        </Journal>
        <ArticleTitle>Dexmedetomidine versus propofol sedation: a randomized trial</ArticleTitle>
        <Abstract>
          <AbstractText Label="METHODS">We randomly assigned 240 adults undergoing hip surgery.</AbstractText>
          <AbstractText Label="RESULTS">Pain scores were lower with dexmedetomidine.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Tanaka</LastName><ForeName>Yuki</ForeName></Author>
          <Author><LastName>Moreau</LastName></Author>
        </AuthorList>
        <Language>eng</Language>
      </Article>
      <MeshHeadingList>
        <MeshHeading><DescriptorName UI="D000768">Anesthesia</DescriptorName></MeshHeading>
        <MeshHeading><DescriptorName UI="D006801">Humans</DescriptorName></MeshHeading>
      </MeshHeadingList>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">38887766</ArticleId>
        <ArticleId IdType="doi">10.1016/j.bja.2026.04.012</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID></PMID>
      <Article><ArticleTitle>Broken record without PMID</ArticleTitle></Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestFetchDetails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, sampleEFetchXML)
	}))
	defer ts.Close()

	prev := efetchBase
	efetchBase = ts.URL
	defer func() { efetchBase = prev }()

	client := &Client{HTTP: ts.Client()}
	articles, err := client.FetchDetails(context.Background(), []string{"38887766"}, testCfg())
	if err != nil {
		t.Fatalf("FetchDetails() error: %v", err)
	}

	// The PMID-less record is dropped.
	if len(articles) != 1 {
		t.Fatalf("len(articles) = %d, want 1", len(articles))
	}

	a := articles[0]
	if a.PMID != "38887766" {
		t.Errorf("PMID = %q, want 38887766", a.PMID)
	}
	if a.Title != "Dexmedetomidine versus propofol sedation: a randomized trial" {
		t.Errorf("Title = %q", a.Title)
	}
	if !strings.Contains(a.Abstract, "METHODS: We randomly assigned 240 adults") {
		t.Errorf("Abstract = %q, want labeled sections joined", a.Abstract)
	}
	if a.Journal != "British Journal of Anaesthesia" {
		t.Errorf("Journal = %q", a.Journal)
	}
	if a.Year != 2026 {
		t.Errorf("Year = %d, want 2026", a.Year)
	}
	if a.DOI != "10.1016/j.bja.2026.04.012" {
		t.Errorf("DOI = %q", a.DOI)
	}
	if len(a.Authors) != 2 || a.Authors[0] != "Yuki Tanaka" || a.Authors[1] != "Moreau" {
		t.Errorf("Authors = %v", a.Authors)
	}
	if len(a.MeshTerms) != 2 || a.MeshTerms[1] != "Humans" {
		t.Errorf("MeshTerms = %v", a.MeshTerms)
	}
	if a.URL != "https://pubmed.ncbi.nlm.nih.gov/38887766/" {
		t.Errorf("URL = %q", a.URL)
	}
}

func TestFetchDetailsEmptyList(t *testing.T) {
	// No server: an empty PMID list must not hit the network.
	client := &Client{HTTP: http.DefaultClient}
	articles, err := client.FetchDetails(context.Background(), nil, testCfg())
	if err != nil {
		t.Fatalf("FetchDetails(nil) error: %v", err)
	}
	if articles != nil {
		t.Errorf("articles = %v, want nil", articles)
	}
}
