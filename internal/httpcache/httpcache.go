// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpcache provides a SQLite-backed caching http.RoundTripper for
// the external API calls made by the pipeline. Successful GET responses are
// cached with a TTL; stale entries are served when the origin fails.
package httpcache

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "http_cache.db"

// DefaultTTL is how long a cached response stays fresh.
const DefaultTTL = time.Hour

// Transport is a caching http.RoundTripper. It caches successful GET
// responses in SQLite keyed by URL. Non-GET requests and non-200
// responses pass through uncached.
type Transport struct {
	db   *sql.DB
	ttl  time.Duration
	next http.RoundTripper
}

// entry is a cached response row.
type entry struct {
	status    int
	header    http.Header
	body      []byte
	fetchedAt time.Time
}

// Open creates or opens the cache database under dataDir. A zero ttl uses
// DefaultTTL; a nil next uses http.DefaultTransport.
func Open(dataDir string, ttl time.Duration, next http.RoundTripper) (*Transport, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		url TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		header TEXT NOT NULL,
		body BLOB NOT NULL,
		fetched_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{db: db, ttl: ttl, next: next}, nil
}

// Close releases the database connection.
func (t *Transport) Close() error {
	return t.db.Close()
}

// Client returns an http.Client using this transport with the given timeout.
func (t *Transport) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

// RoundTrip implements http.RoundTripper. Fresh cache hits short-circuit
// the network; origin failures fall back to stale entries when present.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}

	key := req.URL.String()
	cached, cacheErr := t.lookup(key)

	if cacheErr == nil && time.Since(cached.fetchedAt) < t.ttl {
		return synthesize(req, cached, "HIT"), nil
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		// Stale-if-error: a dead origin is better served from yesterday's
		// response than not at all.
		if cacheErr == nil {
			return synthesize(req, cached, "STALE"), nil
		}
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if cacheErr == nil && retryableStatus(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return synthesize(req, cached, "STALE"), nil
		}
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body for cache: %w", err)
	}

	if err := t.store(key, resp.StatusCode, resp.Header, body); err != nil {
		// Cache write failures must not break the request.
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("X-Cache", "MISS")
	return resp, nil
}

// retryableStatus mirrors the statuses httputil retries; for those the
// stale entry wins over a throttling response.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (t *Transport) lookup(url string) (entry, error) {
	var (
		e         entry
		headerRaw string
		fetchedAt string
	)
	err := t.db.QueryRow(
		`SELECT status, header, body, fetched_at FROM responses WHERE url = ?`, url,
	).Scan(&e.status, &headerRaw, &e.body, &fetchedAt)
	if err != nil {
		return entry{}, err
	}

	if err := json.Unmarshal([]byte(headerRaw), &e.header); err != nil {
		return entry{}, fmt.Errorf("parsing cached header: %w", err)
	}
	e.fetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return entry{}, fmt.Errorf("parsing cached timestamp: %w", err)
	}
	return e, nil
}

func (t *Transport) store(url string, status int, header http.Header, body []byte) error {
	headerRaw, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}
	_, err = t.db.Exec(
		`INSERT INTO responses (url, status, header, body, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			status = excluded.status, header = excluded.header,
			body = excluded.body, fetched_at = excluded.fetched_at`,
		url, status, string(headerRaw), body, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// synthesize builds an http.Response from a cache entry.
func synthesize(req *http.Request, e entry, state string) *http.Response {
	header := e.header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("X-Cache", state)
	return &http.Response{
		Status:        http.StatusText(e.status),
		StatusCode:    e.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}
