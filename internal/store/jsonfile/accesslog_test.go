package jsonfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/eaglesec/eagle-access/internal/store"
)

func TestAccessLog_AppendOrder(t *testing.T) {
	repo := NewAccessLogRepository(filepath.Join(t.TempDir(), "access_log.json"))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"ada", "Unknown", "bob"} {
		err := repo.Append(ctx, store.AccessDecision{
			Status:     store.DecisionGranted,
			Name:       name,
			Confidence: 0.9,
			Time:       base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	entries, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, name := range []string{"ada", "Unknown", "bob"} {
		if entries[i].Name != name {
			t.Errorf("entry %d: expected name %q, got %q", i, name, entries[i].Name)
		}
	}
}

func TestAccessLog_EmptyHistory(t *testing.T) {
	repo := NewAccessLogRepository(filepath.Join(t.TempDir(), "access_log.json"))

	entries, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty history, got %d entries", len(entries))
	}
}

func TestAccessLog_PreservesScoresAndErrorTag(t *testing.T) {
	repo := NewAccessLogRepository(filepath.Join(t.TempDir(), "access_log.json"))
	ctx := context.Background()

	decision := store.AccessDecision{
		Status:     store.DecisionDenied,
		Name:       store.UnknownName,
		Confidence: 0,
		Scores:     map[string]float64{"cosine": 0.1234, "euclidean": 0.4, "manhattan": 0.02},
		Time:       time.Now().UTC(),
		Error:      "probe_extraction_failed",
	}
	if err := repo.Append(ctx, decision); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	got := entries[0]
	if got.Error != "probe_extraction_failed" {
		t.Errorf("expected error tag to survive, got %q", got.Error)
	}
	if got.Scores["cosine"] != 0.1234 {
		t.Errorf("expected cosine score 0.1234, got %f", got.Scores["cosine"])
	}
}
