package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

// Format identifies a matrix file encoding.
type Format string

// Supported matrix file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// ReadMatrix decodes a matrix from r and runs [Parse] on it. The document may
// be the bare matrix or a mapping with a "matrix" key; TOML documents must
// use the key form. ReadMatrix does not call [Validate].
func ReadMatrix(r io.Reader, format Format) (Matrix, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedMatrix, err, "decode yaml")
		}
	case FormatTOML:
		var table map[string]any
		if _, err := toml.NewDecoder(r).Decode(&table); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedMatrix, err, "decode toml")
		}
		doc = table
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedMatrix, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported matrix format %q", format)
	}

	if table, ok := doc.(map[string]any); ok {
		v, ok := table["matrix"]
		if !ok {
			return nil, errors.MalformedMatrix(`document has no "matrix" key`)
		}
		doc = v
	}
	return Parse(doc)
}

// UnmarshalMatrix decodes a JSON matrix from data.
func UnmarshalMatrix(data []byte) (Matrix, error) {
	return ReadMatrix(bytes.NewReader(data), FormatJSON)
}

// ReadMatrixFile reads a matrix from path, choosing the decoder by extension.
func ReadMatrixFile(path string) (Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMatrix(f, FormatFromPath(path))
}

// WriteMatrix writes m as JSON with one row per line.
func WriteMatrix(w io.Writer, m Matrix) error {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, row := range m {
		data, err := json.Marshal(Matrix{row}.Ints()[0])
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		buf.WriteString("  ")
		buf.Write(data)
		if i < len(m)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteMatrixFile writes m as JSON to path.
func WriteMatrixFile(m Matrix, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteMatrix(f, m)
}

// EncodeMatrix writes m in format. JSON is written like [WriteMatrix]; YAML
// and TOML use the {"matrix": ...} document form that [ReadMatrix] accepts.
func EncodeMatrix(w io.Writer, m Matrix, format Format) error {
	switch format {
	case FormatJSON, "":
		return WriteMatrix(w, m)
	case FormatYAML:
		rows := &yaml.Node{Kind: yaml.SequenceNode}
		for _, row := range m.Ints() {
			n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			if err := n.Encode(row); err != nil {
				return err
			}
			n.Style = yaml.FlowStyle
			rows.Content = append(rows.Content, n)
		}
		doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "matrix"},
			rows,
		}}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		doc := struct {
			Matrix [][]int `toml:"matrix"`
		}{m.Ints()}
		return toml.NewEncoder(w).Encode(doc)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported matrix format %q", format)
}
