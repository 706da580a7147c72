package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	rec, err := NewRecord("dashboard", grid.Matrix{{1, 1}, {2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	rec.Style = "dark"
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx, "dashboard")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Grid().Equal(grid.Matrix{{1, 1}, {2, 3}}) {
		t.Errorf("Load() matrix = %v", got.Matrix)
	}
	if got.Style != "dark" || got.Regions != 3 {
		t.Errorf("Load() = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestFileStoreKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	rec, _ := NewRecord("a", grid.Matrix{{1}})
	if err := s.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Load(ctx, "a")

	time.Sleep(2 * time.Millisecond)
	rec2, _ := NewRecord("a", grid.Matrix{{1, 2}})
	if err := s.Save(ctx, rec2); err != nil {
		t.Fatal(err)
	}
	second, _ := s.Load(ctx, "a")

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.Regions != 2 {
		t.Errorf("Regions = %d, want 2", second.Regions)
	}
}

func TestFileStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	tests := []struct {
		name string
		rec  *Record
		code errors.Code
	}{
		{"bad name", &Record{Name: "../etc", Matrix: [][]int{{1}}}, errors.ErrCodeInvalidName},
		{"empty name", &Record{Name: "", Matrix: [][]int{{1}}}, errors.ErrCodeInvalidName},
		{"bad matrix", &Record{Name: "x", Matrix: [][]int{{1, 2}, {2, 1}}}, errors.ErrCodeNonRectangularRegion},
		{"gap", &Record{Name: "x", Matrix: [][]int{{1, 3}}}, errors.ErrCodeNonSequentialIDs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Save(ctx, tt.rec); !errors.Is(err, tt.code) {
				t.Errorf("Save() error = %v, want %s", err, tt.code)
			}
		})
	}

	entries, _ := os.ReadDir(s.Path())
	if len(entries) != 0 {
		t.Errorf("invalid saves left %d files", len(entries))
	}
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, errors.ErrCodeLayoutNotFound) {
		t.Errorf("Load() error = %v, want LAYOUT_NOT_FOUND", err)
	}
	if err := s.Delete(ctx, "missing"); err != ErrNotFound {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		rec, _ := NewRecord(name, grid.Matrix{{1}})
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	// Stray files are ignored.
	os.WriteFile(filepath.Join(s.Path(), "notes.txt"), []byte("x"), 0600)

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	if len(names) != 3 || names[0] != "alpha" || names[2] != "zeta" {
		t.Errorf("List() = %v", names)
	}

	if err := s.Delete(ctx, "mid"); err != nil {
		t.Fatal(err)
	}
	list, _ = s.List(ctx)
	if len(list) != 2 {
		t.Errorf("List() after delete has %d entries", len(list))
	}
}
