//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vizgrid/pkg/grid"
)

func TestMongoStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("VIZGRID_MONGO_URI")
	if uri == "" {
		t.Skip("VIZGRID_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "vizgrid_test", "layouts_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("NewMongoStore() error = %v", err)
	}
	defer func() {
		s.coll.Drop(context.Background())
		s.Close()
	}()

	rec, err := NewRecord("dashboard", grid.Matrix{{1, 1}, {2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx, "dashboard")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Grid().Equal(grid.Matrix{{1, 1}, {2, 3}}) || got.Regions != 3 {
		t.Errorf("Load() = %+v", got)
	}

	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}

	if err := s.Delete(ctx, "dashboard"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(ctx, "dashboard"); err != ErrNotFound {
		t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
	}
}
