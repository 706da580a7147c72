package grid

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    Matrix
		wantErr bool
	}{
		{"ints", [][]int{{1, 2}}, Matrix{{1, 2}}, false},
		{"matrix", Matrix{{1}}, Matrix{{1}}, false},
		{"decoded floats", []any{[]any{1.0, 2.0}}, Matrix{{1, 2}}, false},
		{"decoded int64", []any{[]any{int64(1)}}, Matrix{{1}}, false},
		{"null", nil, nil, true},
		{"not a list", "1,2", nil, true},
		{"row not a list", []any{[]any{1}, 2}, nil, true},
		{"string cell", []any{[]any{1, "2"}}, nil, true},
		{"fractional cell", []any{[]any{1.5}}, nil, true},
		{"negative cell", []any{[]any{-1}}, nil, true},
		{"negative ints", [][]int{{-3}}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeMalformedMatrix) {
					t.Fatalf("Parse() error = %v, want MALFORMED_MATRIX", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCopiesInput(t *testing.T) {
	in := Matrix{{1, 2}}
	got, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got[0][0] = 9
	if in[0][0] != 1 {
		t.Error("Parse() aliased its input")
	}
}

func TestReadMatrix(t *testing.T) {
	want := Matrix{{1, 1}, {2, 3}}
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"json bare", FormatJSON, `[[1,1],[2,3]]`},
		{"json keyed", FormatJSON, `{"matrix": [[1,1],[2,3]]}`},
		{"yaml bare", FormatYAML, "- [1, 1]\n- [2, 3]\n"},
		{"yaml keyed", FormatYAML, "matrix:\n  - [1, 1]\n  - [2, 3]\n"},
		{"toml keyed", FormatTOML, "matrix = [[1, 1], [2, 3]]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadMatrix(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadMatrix() error = %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("ReadMatrix() = %v, want %v", got, want)
			}
		})
	}
}

func TestReadMatrixErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		code   errors.Code
	}{
		{"bad json", FormatJSON, `[[1,`, errors.ErrCodeMalformedMatrix},
		{"missing key", FormatJSON, `{"grid": [[1]]}`, errors.ErrCodeMalformedMatrix},
		{"string cells", FormatYAML, "- [a, b]\n", errors.ErrCodeMalformedMatrix},
		{"unknown format", Format("xml"), `<m/>`, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMatrix(strings.NewReader(tt.input), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadMatrix() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"layout.json": FormatJSON,
		"layout.yaml": FormatYAML,
		"layout.YML":  FormatYAML,
		"layout.toml": FormatTOML,
		"layout":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWriteMatrixRoundTrip(t *testing.T) {
	m := Matrix{{1, 1, 2}, {3, 3, 2}}

	var buf bytes.Buffer
	if err := WriteMatrix(&buf, m); err != nil {
		t.Fatalf("WriteMatrix() error = %v", err)
	}
	if want := "[\n  [1,1,2],\n  [3,3,2]\n]\n"; buf.String() != want {
		t.Errorf("WriteMatrix() = %q, want %q", buf.String(), want)
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteMatrixFile(m, path); err != nil {
		t.Fatalf("WriteMatrixFile() error = %v", err)
	}
	got, err := ReadMatrixFile(path)
	if err != nil {
		t.Fatalf("ReadMatrixFile() error = %v", err)
	}
	if !got.Equal(m) {
		t.Errorf("round trip = %v, want %v", got, m)
	}
}

func TestReadMatrixFileMissing(t *testing.T) {
	_, err := ReadMatrixFile(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Errorf("ReadMatrixFile() error = %v, want not-exist", err)
	}
}

func TestEncodeMatrix(t *testing.T) {
	m := Matrix{{1, 1, 2}, {3, 3, 2}}
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "[1,1,2]"},
		{FormatYAML, "- [1, 1, 2]"},
		{FormatTOML, "matrix = [[1, 1, 2], [3, 3, 2]]"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeMatrix(&buf, m, tt.format); err != nil {
				t.Fatalf("EncodeMatrix() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q lacks %q", buf.String(), tt.want)
			}
			got, err := ReadMatrix(&buf, tt.format)
			if err != nil {
				t.Fatalf("ReadMatrix() error = %v", err)
			}
			if !got.Equal(m) {
				t.Errorf("round trip = %v", got)
			}
		})
	}

	if err := EncodeMatrix(&bytes.Buffer{}, m, "xml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("EncodeMatrix(xml) error = %v", err)
	}
}

func TestExampleLayouts(t *testing.T) {
	tests := []struct {
		file    string
		regions int
		code    errors.Code
	}{
		{"dashboard.json", 5, ""},
		{"sidebar.yaml", 4, ""},
		{"quad.toml", 4, ""},
		{"invalid.json", 0, errors.ErrCodeNonRectangularRegion},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			m, err := ReadMatrixFile(filepath.Join("..", "..", "examples", "layouts", tt.file))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			ids, err := Validate(m)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Fatalf("Validate() err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(): %v", err)
			}
			if len(ids) != tt.regions {
				t.Errorf("regions = %d, want %d", len(ids), tt.regions)
			}
		})
	}
}
