package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

func TestProbeSetMarkClaims(t *testing.T) {
	ps := NewProbeSet(100)

	if !ps.Mark("https://example.com/api/a") {
		t.Error("first Mark returned false")
	}
	if ps.Mark("https://example.com/api/a") {
		t.Error("second Mark returned true")
	}
	if !ps.Mark("https://example.com/api/b") {
		t.Error("distinct URL rejected")
	}
	if ps.Count() != 2 {
		t.Errorf("expected count 2, got %d", ps.Count())
	}
}

func TestProbeSetConcurrentMark(t *testing.T) {
	ps := NewProbeSet(100)
	claims := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func() {
			claims <- ps.Mark("https://example.com/api/shared")
		}()
	}

	won := 0
	for i := 0; i < 10; i++ {
		if <-claims {
			won++
		}
	}
	if won != 1 {
		t.Errorf("expected exactly one successful claim, got %d", won)
	}
}

func TestHistorySaveAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("OpenHistory failed: %v", err)
	}
	defer h.Close()

	rec := &ScanRecord{
		Target:    "https://example.com",
		StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
		Endpoints: []endpoint.Endpoint{
			{URL: "https://example.com/api/users", Method: "GET", Source: endpoint.SourceAjax, Confidence: 0.9},
		},
	}
	if err := h.Save(rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	records, err := h.List("https://example.com")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0].Endpoints) != 1 || records[0].Endpoints[0].URL != "https://example.com/api/users" {
		t.Errorf("record round-trip lost endpoints: %+v", records[0])
	}

	other, err := h.List("https://other.example.com")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("filter leaked records: %d", len(other))
	}
}

func TestHistoryLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("OpenHistory failed: %v", err)
	}
	defer h.Close()

	for _, ts := range []time.Time{
		time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	} {
		if err := h.Save(&ScanRecord{Target: "https://example.com", StartedAt: ts}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	latest, err := h.Latest("https://example.com")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest == nil || latest.StartedAt.Day() != 2 {
		t.Errorf("wrong latest record: %+v", latest)
	}

	none, err := h.Latest("https://missing.example.com")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for unknown target, got %+v", none)
	}
}
