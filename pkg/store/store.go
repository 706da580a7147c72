// Package store persists named layout matrices.
//
// Two backends implement [Store]:
//   - [FileStore]: one JSON file per layout, for the CLI
//   - [MongoStore]: one document per layout, for shared deployments
//
// Every backend validates the name and the matrix before writing, so a
// stored layout can always be loaded straight into a layout engine.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
)

// ErrNotFound is returned when no layout has the requested name.
var ErrNotFound = errors.New(errors.ErrCodeLayoutNotFound, "layout not found")

// Record is a saved layout.
type Record struct {
	Name        string    `json:"name" bson:"_id"`
	Matrix      [][]int   `json:"matrix" bson:"matrix"`
	Style       string    `json:"style,omitempty" bson:"style,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Regions     int       `json:"regions" bson:"regions"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NewRecord builds a record for m after validating it.
func NewRecord(name string, m grid.Matrix) (*Record, error) {
	r := &Record{Name: name, Matrix: m.Ints()}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Grid returns the record's matrix.
func (r *Record) Grid() grid.Matrix { return grid.FromInts(r.Matrix) }

// Validate checks the name and matrix and fills in Regions.
func (r *Record) Validate() error {
	if err := errors.ValidateLayoutName(r.Name); err != nil {
		return err
	}
	ids, err := grid.Validate(r.Grid())
	if err != nil {
		return err
	}
	r.Regions = len(ids)
	return nil
}

// Store is the interface for layout storage backends.
type Store interface {
	// Save validates rec and writes it, replacing any layout of the same
	// name. CreatedAt is kept from an existing record; UpdatedAt is set.
	Save(ctx context.Context, rec *Record) error

	// Load returns the named layout or ErrNotFound.
	Load(ctx context.Context, name string) (*Record, error)

	// List returns every layout sorted by name.
	List(ctx context.Context) ([]Record, error)

	// Delete removes the named layout or returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	Close() error
}
