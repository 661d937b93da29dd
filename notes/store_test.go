package notes

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/notegrove/notegrove/db"
	"github.com/notegrove/notegrove/db/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := db.DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "notes.db")
	gdb, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(gdb)
}

func TestMaterialize_FieldMapping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	note, err := s.Materialize(ctx, StructuredExtraction{
		Title:     "Badminton at PolyU",
		Notes:     "Play badminton at 5pm tomorrow.",
		Tags:      TagList{"badminton", "sports"},
		EventDate: "18-Oct-2025",
		EventTime: "17:00",
	}, "badminton tmr 5pm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if note.Title != "Badminton at PolyU" {
		t.Fatalf("unexpected title %q", note.Title)
	}
	if note.Tags != "badminton, sports" {
		t.Fatalf("expected comma-joined tags, got %q", note.Tags)
	}
	if note.EventDate != "18-Oct-2025" || note.EventTime != "17:00" {
		t.Fatalf("expected event fields verbatim, got %q %q", note.EventDate, note.EventTime)
	}
	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Fatal("expected server-assigned timestamps")
	}
}

func TestMaterialize_Defaults(t *testing.T) {
	s := newTestStore(t)

	note, err := s.Materialize(context.Background(), StructuredExtraction{}, "the original input text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.Title != DefaultTitle {
		t.Fatalf("expected default title, got %q", note.Title)
	}
	if note.Content != "the original input text" {
		t.Fatalf("expected fallback content, got %q", note.Content)
	}
	if note.Tags != "" {
		t.Fatalf("expected empty tags, got %q", note.Tags)
	}
}

func TestCreate_OrderIndexSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, want := range []int{1, 2, 3} {
		note := models.Note{Title: "t", Content: "c"}
		if err := s.Create(ctx, &note); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if note.OrderIndex != want {
			t.Fatalf("note %d: expected order_index %d, got %d", i, want, note.OrderIndex)
		}
	}
}

func TestCreate_ConcurrentOrderIndexUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			note := models.Note{Title: "t", Content: "c"}
			errs[i] = s.Create(ctx, &note)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent create %d: %v", i, err)
		}
	}

	rows, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != n {
		t.Fatalf("expected %d notes, got %d", n, len(rows))
	}
	seen := make(map[int]bool, n)
	for _, row := range rows {
		if seen[row.OrderIndex] {
			t.Fatalf("duplicate order_index %d", row.OrderIndex)
		}
		seen[row.OrderIndex] = true
	}
	for want := 1; want <= n; want++ {
		if !seen[want] {
			t.Fatalf("missing order_index %d", want)
		}
	}
}

func TestUpdate_PatchAndNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	note := models.Note{Title: "before", Content: "c"}
	if err := s.Create(ctx, &note); err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "after"
	updated, found, err := s.Update(ctx, note.ID, NotePatch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !found {
		t.Fatal("expected note to be found")
	}
	if updated.Title != "after" || updated.Content != "c" {
		t.Fatalf("unexpected patch result: %+v", updated)
	}

	_, found, err = s.Update(ctx, 9999, NotePatch{Title: &title})
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if found {
		t.Fatal("expected found=false for missing note")
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	note := models.Note{Title: "t", Content: "c"}
	if err := s.Create(ctx, &note); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := s.Delete(ctx, note.ID)
	if err != nil || !ok {
		t.Fatalf("expected delete to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = s.Delete(ctx, note.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Fatal("expected found=false on second delete")
	}
}

func TestReorder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		note := models.Note{Title: "t", Content: "c"}
		if err := s.Create(ctx, &note); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, note.ID)
	}

	// Reverse the display order.
	if err := s.Reorder(ctx, []int64{ids[2], ids[1], ids[0]}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	rows, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rows[0].ID != ids[2] || rows[2].ID != ids[0] {
		t.Fatalf("unexpected order after reorder: %+v", rows)
	}

	// Unknown id rolls the whole reorder back.
	if err := s.Reorder(ctx, []int64{ids[0], 9999}); err == nil {
		t.Fatal("expected error for unknown id")
	}
	rows, err = s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rows[0].ID != ids[2] {
		t.Fatalf("expected order unchanged after failed reorder, got %+v", rows)
	}
}
