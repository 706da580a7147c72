// Package pipeline runs the load → validate → render flow shared by the
// CLI and the HTTP bridge.
//
// # Architecture
//
//  1. Load: read a matrix from a file, a URL, inline bytes or a value
//  2. Validate: check it with the grid validator
//  3. Render: produce artifacts in the requested formats
//
// Validated matrices and rendered artifacts are cached by content hash,
// so re-rendering an unchanged layout is a cache lookup.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "dashboard.yaml",
//	    Formats: []string{"html", "svg"},
//	})
//	html := result.Artifacts["html"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizgrid/pkg/cache"
	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and HTTP bridge
// =============================================================================

const (
	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = string(render.FormatHTML)

	// DefaultStyle is the CSS class of the grid container.
	DefaultStyle = layout.DefaultStyle

	// DefaultTokens names regions "area1", "area2", ... so artifacts are
	// reproducible and cacheable.
	DefaultTokens = "sequential"
)

// ValidStyles are the container classes the HTML renderer ships CSS for.
var ValidStyles = []string{"basic", "dark"}

// ValidTokens are the token strategies a render may use.
var ValidTokens = []string{"sequential", "uuid"}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options: exactly one of Source, Input or Matrix.
	Source      string      `json:"source,omitempty"`       // file path, http(s) URL or "-" for Stdin
	Input       []byte      `json:"-"`                      // inline document
	InputFormat grid.Format `json:"input_format,omitempty"` // format of Input; default json
	Matrix      grid.Matrix `json:"matrix,omitempty"`       // already decoded matrix
	Refresh     bool        `json:"refresh,omitempty"`      // bypass the cache

	// Render options
	Formats     []string                 `json:"formats,omitempty"`
	Style       string                   `json:"style,omitempty"`
	Tokens      string                   `json:"tokens,omitempty"`
	RowHeight   int                      `json:"row_height,omitempty"`
	ColumnWidth int                      `json:"column_width,omitempty"`
	Labels      map[grid.RegionID]string `json:"labels,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Stdin  io.Reader   `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Matrix     grid.Matrix
	MatrixHash string
	Regions    []grid.RegionID
	Scene      *render.Scene
	Artifacts  map[string][]byte
	Stats      Stats
	CacheInfo  CacheInfo
}

// Stats contains timing information.
type Stats struct {
	LoadTime     time.Duration
	ValidateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	LoadHit   bool // matrix came from the cache
	RenderHit bool // every artifact came from the cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported, suggesting the closest
// match for a typo.
func ValidateFormat(format string) error {
	if render.Format(format).Valid() {
		return nil
	}
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return invalidChoice(errors.ErrCodeInvalidFormat, "format", format, names)
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is known.
func ValidateStyle(style string) error {
	if slices.Contains(ValidStyles, style) {
		return nil
	}
	return invalidChoice(errors.ErrCodeInvalidInput, "style", style, ValidStyles)
}

// ValidateTokens checks that a token strategy is known.
func ValidateTokens(tokens string) error {
	if slices.Contains(ValidTokens, tokens) {
		return nil
	}
	return invalidChoice(errors.ErrCodeInvalidInput, "tokens", tokens, ValidTokens)
}

// Suggest returns the candidate closest to s, or "" when none is within
// two edits.
func Suggest(s string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(strings.ToLower(s), c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func invalidChoice(code errors.Code, what, got string, valid []string) error {
	msg := fmt.Sprintf("invalid %s: %q (must be one of: %s)", what, got, strings.Join(valid, ", "))
	if s := Suggest(got, valid); s != "" {
		msg += fmt.Sprintf("; did you mean %q?", s)
	}
	return errors.New(code, "%s", msg)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForLoad checks that exactly one input is set.
func (o *Options) ValidateForLoad() error {
	n := 0
	if o.Source != "" {
		n++
	}
	if len(o.Input) > 0 {
		n++
	}
	if o.Matrix != nil {
		n++
	}
	switch {
	case n == 0:
		return errors.New(errors.ErrCodeInvalidInput, "a source, input or matrix is required")
	case n > 1:
		return errors.New(errors.ErrCodeInvalidInput, "source, input and matrix are mutually exclusive")
	}
	if o.InputFormat == "" {
		o.InputFormat = grid.FormatJSON
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Tokens == "" {
		o.Tokens = DefaultTokens
	}
	if o.RowHeight == 0 {
		o.RowHeight = render.DefaultRowHeight
	}
	if o.ColumnWidth == 0 {
		o.ColumnWidth = render.DefaultColumnWidth
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := ValidateTokens(o.Tokens); err != nil {
		return err
	}
	if o.RowHeight < 0 || o.ColumnWidth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "row height and column width must be positive")
	}
	return nil
}

// Cacheable reports whether rendered artifacts are reproducible.
func (o *Options) Cacheable() bool {
	return o.Tokens != "uuid" && len(o.Labels) == 0
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		Style:       o.Style,
		RowHeight:   o.RowHeight,
		ColumnWidth: o.ColumnWidth,
		Tokens:      o.Tokens,
	}
}
