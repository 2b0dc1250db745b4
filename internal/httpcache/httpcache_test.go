// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httpcache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTransport(t *testing.T, ttl time.Duration) *Transport {
	t.Helper()
	tr, err := Open(t.TempDir(), ttl, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestRoundTrip_CachesSecondGet(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, "payload")
	}))
	defer ts.Close()

	tr := newTransport(t, time.Hour)
	client := tr.Client(10 * time.Second)

	resp, body := get(t, client, ts.URL)
	if body != "payload" {
		t.Errorf("first body = %q, want payload", body)
	}
	if resp.Header.Get("X-Cache") != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", resp.Header.Get("X-Cache"))
	}

	resp, body = get(t, client, ts.URL)
	if body != "payload" {
		t.Errorf("second body = %q, want payload", body)
	}
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", resp.Header.Get("X-Cache"))
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("origin calls = %d, want 1", n)
	}
}

func TestRoundTrip_ExpiredEntryRefetches(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, "payload")
	}))
	defer ts.Close()

	tr := newTransport(t, 1*time.Nanosecond)
	client := tr.Client(10 * time.Second)

	get(t, client, ts.URL)
	time.Sleep(time.Millisecond)
	get(t, client, ts.URL)

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("origin calls = %d, want 2", n)
	}
}

func TestRoundTrip_StaleServedWhenOriginDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "payload")
	}))

	tr := newTransport(t, 1*time.Nanosecond)
	client := tr.Client(2 * time.Second)

	get(t, client, ts.URL)
	url := ts.URL
	ts.Close()
	time.Sleep(time.Millisecond)

	resp, body := get(t, client, url)
	if body != "payload" {
		t.Errorf("stale body = %q, want payload", body)
	}
	if resp.Header.Get("X-Cache") != "STALE" {
		t.Errorf("X-Cache = %q, want STALE", resp.Header.Get("X-Cache"))
	}
}

func TestRoundTrip_StaleServedOnThrottle(t *testing.T) {
	var throttle atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if throttle.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "payload")
	}))
	defer ts.Close()

	tr := newTransport(t, 1*time.Nanosecond)
	client := tr.Client(10 * time.Second)

	get(t, client, ts.URL)
	throttle.Store(true)
	time.Sleep(time.Millisecond)

	resp, body := get(t, client, ts.URL)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 from stale entry", resp.StatusCode)
	}
	if body != "payload" {
		t.Errorf("body = %q, want payload", body)
	}
}

func TestRoundTrip_Non200NotCached(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	tr := newTransport(t, time.Hour)
	client := tr.Client(10 * time.Second)

	get(t, client, ts.URL)
	get(t, client, ts.URL)

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("origin calls = %d, want 2 (404s are not cached)", n)
	}
}

func TestRoundTrip_PostBypassesCache(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	tr := newTransport(t, time.Hour)
	client := tr.Client(10 * time.Second)

	for i := 0; i < 2; i++ {
		resp, err := client.Post(ts.URL, "text/plain", nil)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
	}

	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("origin calls = %d, want 2", n)
	}
}
