// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndContains(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	added := Entry{
		DOI:       "10.1000/abc",
		PMID:      "12345",
		Title:     "A trial",
		Journal:   "Anesthesiology",
		Score:     5.5,
		Rationale: "large sample size (n=600); multicenter trial",
	}
	if err := s.Add(ctx, added); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Journal != added.Journal || got.Score != added.Score || got.Rationale != added.Rationale {
		t.Errorf("List()[0] = %+v, want fields from %+v", got, added)
	}

	tests := []struct {
		name string
		doi  string
		pmid string
		want bool
	}{
		{"by DOI", "10.1000/abc", "", true},
		{"by PMID", "", "12345", true},
		{"either matches", "10.1000/abc", "99999", true},
		{"unknown", "10.1000/xyz", "99999", false},
		{"empty never matches", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Contains(ctx, tt.doi, tt.pmid)
			if err != nil {
				t.Fatalf("Contains() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Contains(%q, %q) = %v, want %v", tt.doi, tt.pmid, got, tt.want)
			}
		})
	}
}

func TestAddRequiresIdentifier(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(context.Background(), Entry{Title: "No identifiers"}); err == nil {
		t.Error("Add() with no identifiers should fail")
	}
}

func TestListMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, pmid := range []string{"1", "2", "3"} {
		err := s.Add(ctx, Entry{PMID: pmid, SelectedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("Add() error: %v", err)
		}
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, want := range []string{"3", "2", "1"} {
		if entries[i].PMID != want {
			t.Errorf("entries[%d].PMID = %q, want %q", i, entries[i].PMID, want)
		}
	}
	if entries[0].SelectedAt.IsZero() {
		t.Error("SelectedAt should round-trip")
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, Entry{PMID: "1"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d after Clear, want 0", len(entries))
	}
}

func TestOpenReopensExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s1.Add(ctx, Entry{PMID: "42"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s2.Close()

	found, err := s2.Contains(ctx, "", "42")
	if err != nil {
		t.Fatalf("Contains() error: %v", err)
	}
	if !found {
		t.Error("entry should survive reopen")
	}
}
