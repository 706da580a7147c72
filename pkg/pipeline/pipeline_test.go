package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/vizgrid/pkg/cache"
	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/observability"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"html", false},
		{"svg", false},
		{"json", false},
		{"dot", false},
		{"gv.svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormatSuggests(t *testing.T) {
	tests := []struct {
		format string
		hint   string
	}{
		{"htlm", `did you mean "html"`},
		{"SVG", `did you mean "svg"`},
		{"jsn", `did you mean "json"`},
		{"spreadsheet", ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			msg := ValidateFormat(tt.format).Error()
			if tt.hint == "" && strings.Contains(msg, "did you mean") {
				t.Errorf("unexpected suggestion: %s", msg)
			}
			if tt.hint != "" && !strings.Contains(msg, tt.hint) {
				t.Errorf("message %q lacks %q", msg, tt.hint)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "html"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateStyleAndTokens(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"basic", ValidateStyle("basic"), false},
		{"dark", ValidateStyle("dark"), false},
		{"fancy", ValidateStyle("fancy"), true},
		{"sequential", ValidateTokens("sequential"), false},
		{"uuid", ValidateTokens("uuid"), false},
		{"random", ValidateTokens("random"), true},
	}
	for _, tt := range tests {
		if (tt.err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, tt.err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.SetRenderDefaults()
	if len(o.Formats) != 1 || o.Formats[0] != "html" {
		t.Errorf("Formats = %v", o.Formats)
	}
	if o.Style != "basic" || o.Tokens != "sequential" || o.RowHeight != 180 {
		t.Errorf("defaults = %+v", o)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestValidateForLoad(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"none", Options{}, true},
		{"source", Options{Source: "m.json"}, false},
		{"input", Options{Input: []byte("[[1]]")}, false},
		{"matrix", Options{Matrix: grid.Matrix{{1}}}, false},
		{"two", Options{Source: "m.json", Matrix: grid.Matrix{{1}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForLoad() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecuteFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dash.yaml")
	if err := os.WriteFile(path, []byte("matrix:\n  - [1, 1, 2]\n  - [3, 3, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Source: path, Formats: []string{"html", "json"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Regions) != 3 || res.Matrix.Rows() != 2 {
		t.Errorf("result = %v regions, %d rows", res.Regions, res.Matrix.Rows())
	}
	if !strings.Contains(string(res.Artifacts["html"]), "repeat(2, 180px)") {
		t.Error("html artifact missing grid rows")
	}
	if !strings.Contains(string(res.Artifacts["json"]), `"token": "area3"`) {
		t.Error("json artifact missing area3")
	}
}

func TestExecuteStdin(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Source:      "-",
		Stdin:       strings.NewReader(`matrix = [[1, 2]]`),
		InputFormat: grid.FormatTOML,
		Formats:     []string{"dot"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(string(res.Artifacts["dot"]), `"area1" -- "area2"`) {
		t.Errorf("dot = %s", res.Artifacts["dot"])
	}
}

func TestExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"non-rectangular", Options{Input: []byte(`[[1,2],[2,1]]`)}, errors.ErrCodeNonRectangularRegion},
		{"gap", Options{Input: []byte(`[[1,3]]`)}, errors.ErrCodeNonSequentialIDs},
		{"malformed", Options{Input: []byte(`[[1],"x"]`)}, errors.ErrCodeMalformedMatrix},
		{"missing file", Options{Source: filepath.Join(t.TempDir(), "nope.json")}, errors.ErrCodeNotFound},
		{"bad format", Options{Matrix: grid.Matrix{{1}}, Formats: []string{"bmp"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	opts := Options{Input: []byte(`[[1,1],[2,3]]`), Formats: []string{"svg", "html"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LoadHit || first.CacheInfo.RenderHit {
		t.Errorf("first run cache info = %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LoadHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v", second.CacheInfo)
	}
	if string(second.Artifacts["svg"]) != string(first.Artifacts["svg"]) {
		t.Error("cached svg differs")
	}

	opts.Refresh = true
	third, _ := r.Execute(ctx, opts)
	if third.CacheInfo.LoadHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh run cache info = %+v", third.CacheInfo)
	}
}

func TestExecuteUUIDTokensSkipCache(t *testing.T) {
	ctx := context.Background()
	c, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(c, nil, nil)
	opts := Options{Matrix: grid.Matrix{{1, 2}}, Formats: []string{"json"}, Tokens: "uuid"}

	a, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := r.Execute(ctx, opts)
	if b.CacheInfo.RenderHit {
		t.Error("uuid-token renders must not be cached")
	}
	if a.Scene.Areas[0].Token == b.Scene.Areas[0].Token {
		t.Error("uuid tokens should differ between runs")
	}
	if !strings.HasPrefix(a.Scene.Areas[0].Token, "g") {
		t.Errorf("token %q is not a CSS identifier", a.Scene.Areas[0].Token)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	validated []int
	rendered  [][]string
}

func (h *recordingHooks) OnValidateComplete(_ context.Context, _ string, regions int, _ time.Duration, err error) {
	if err == nil {
		h.validated = append(h.validated, regions)
	}
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, formats []string, _ time.Duration, _ error) {
	h.rendered = append(h.rendered, formats)
}

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(context.Background(), Options{Matrix: grid.Matrix{{1, 2}, {3, 3}}}); err != nil {
		t.Fatal(err)
	}
	if len(h.validated) != 1 || h.validated[0] != 3 {
		t.Errorf("validated = %v", h.validated)
	}
	if len(h.rendered) != 1 || h.rendered[0][0] != "html" {
		t.Errorf("rendered = %v", h.rendered)
	}
}
