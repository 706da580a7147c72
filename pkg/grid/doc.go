// Package grid validates and describes layout matrices.
//
// A layout matrix is a rectangular grid of region ids. Every id marks one
// region of a dashboard, and the cells holding the same id must form a single
// solid, axis-aligned rectangle. Ids form one run starting at [BaseRegion]:
//
//	[[1, 1, 2],
//	 [3, 3, 2]]   // valid: three rectangles
//
//	[[1, 2],
//	 [2, 1]]      // invalid: regions 1 and 2 are split
//
// # Validation
//
// [Validate] is a pure function over a typed [Matrix]. It returns the sorted
// region ids, or an error coded with one of:
//
//	errors.ErrCodeMalformedMatrix       // empty, ragged or negative
//	errors.ErrCodeNonSequentialIDs      // ids do not form 1..K
//	errors.ErrCodeNonRectangularRegion  // some region is not a rectangle
//
// Loosely typed input (decoded JSON, YAML or TOML) goes through [Parse] first,
// which rejects rows that are not lists and cells that are not integers.
//
// # Geometry
//
// [Regions] returns the bounding rectangle of every region and [Adjacency]
// lists regions that share an edge. [TemplateAreas] renders the CSS
// grid-template-areas description of a matrix given a naming function.
//
// # Files
//
// [ReadMatrixFile] loads a matrix from .json, .yaml/.yml or .toml files. A
// file may hold the bare matrix or a document with a "matrix" key.
package grid
