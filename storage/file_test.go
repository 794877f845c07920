package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"

	"matrix-api/domain"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.json")
	s, err := NewFileStore(path, log.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, path
}

func TestFetchUnknownKeyReturnsDefault(t *testing.T) {
	s, _ := newTestStore(t)

	doc, err := s.FetchDocument(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Tasks == nil || doc.Team == nil {
		t.Fatalf("default document must have non-nil collections: %#v", doc)
	}
	if len(doc.Tasks) != 0 || len(doc.Team) != 0 {
		t.Fatalf("default document must be empty: %#v", doc)
	}
}

func TestReplaceThenFetchRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	doc := domain.Document{
		Tasks: []domain.Task{{
			ID: "t1", Number: 1, Title: "Fix invoice", Status: domain.StatusNew,
			Importance: domain.ImportanceUrgent,
			Comments:   []domain.Comment{{ID: "c1", UserID: "u1", Text: "soon"}},
		}},
		Team: []domain.Member{{ID: "u1", Name: "Alice", SystemRole: domain.RoleOwner}},
	}

	if err := s.ReplaceDocument(ctx, "team-1", doc); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.FetchDocument(ctx, "team-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, doc)
	}

	// Replaying the same replace leaves the stored document unchanged.
	if err := s.ReplaceDocument(ctx, "team-1", doc); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	again, err := s.FetchDocument(ctx, "team-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(again, doc) {
		t.Fatalf("idempotent replace mismatch: %#v", again)
	}
}

func TestReplaceSurvivesReload(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	doc := domain.Document{Tasks: []domain.Task{{ID: "t1", Title: "persisted"}}, Team: []domain.Member{}}
	if err := s.ReplaceDocument(ctx, "k", doc); err != nil {
		t.Fatalf("replace: %v", err)
	}

	reloaded, err := NewFileStore(path, log.New())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.FetchDocument(ctx, "k")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "persisted" {
		t.Fatalf("unexpected reloaded document: %#v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind after rename")
	}
}

func TestMalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s, err := NewFileStore(path, log.New())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	doc, err := s.FetchDocument(context.Background(), "k")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(doc.Tasks) != 0 || len(doc.Team) != 0 {
		t.Fatalf("expected empty store after malformed file, got %#v", doc)
	}
}

func TestFetchReturnsIndependentCopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	doc := domain.Document{Tasks: []domain.Task{{ID: "t1", Title: "original"}}, Team: []domain.Member{}}
	if err := s.ReplaceDocument(ctx, "k", doc); err != nil {
		t.Fatalf("replace: %v", err)
	}

	first, _ := s.FetchDocument(ctx, "k")
	first.Tasks[0].Title = "mutated"

	second, _ := s.FetchDocument(ctx, "k")
	if second.Tasks[0].Title != "original" {
		t.Fatalf("fetch handed out shared storage: %#v", second.Tasks[0])
	}
}
