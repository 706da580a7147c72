package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
)

// maxInputBytes bounds documents read from files and Stdin.
const maxInputBytes = 1 << 20

// source is a loaded, still undecoded matrix document.
type source struct {
	name   string
	data   []byte
	format grid.Format
}

// load reads the document selected by opts.
func (r *Runner) load(ctx context.Context, opts Options) (source, error) {
	switch {
	case opts.Matrix != nil:
		data, err := json.Marshal(opts.Matrix.Ints())
		if err != nil {
			return source{}, err
		}
		return source{name: "matrix", data: data, format: grid.FormatJSON}, nil

	case len(opts.Input) > 0:
		return source{name: "input", data: opts.Input, format: opts.InputFormat}, nil

	case opts.Source == "-":
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := readLimited(in)
		if err != nil {
			return source{}, fmt.Errorf("read stdin: %w", err)
		}
		return source{name: "stdin", data: data, format: opts.InputFormat}, nil

	case errors.IsURL(opts.Source):
		data, err := r.Fetcher.Fetch(ctx, opts.Source)
		if err != nil {
			return source{}, err
		}
		format := grid.FormatJSON
		if u, err := url.Parse(opts.Source); err == nil {
			format = grid.FormatFromPath(path.Base(u.Path))
		}
		return source{name: opts.Source, data: data, format: format}, nil
	}

	if err := errors.ValidatePath(opts.Source); err != nil {
		return source{}, err
	}
	f, err := os.Open(opts.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return source{}, errors.Wrap(errors.ErrCodeNotFound, err, "matrix file %s not found", opts.Source)
		}
		return source{}, err
	}
	defer f.Close()
	data, err := readLimited(f)
	if err != nil {
		return source{}, fmt.Errorf("read %s: %w", opts.Source, err)
	}
	return source{name: opts.Source, data: data, format: grid.FormatFromPath(opts.Source)}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "matrix document exceeds %d bytes", maxInputBytes)
	}
	return data, nil
}

// decode parses and validates a loaded document.
func decode(src source) (grid.Matrix, []grid.RegionID, error) {
	m, err := grid.ReadMatrix(bytes.NewReader(src.data), src.format)
	if err != nil {
		return nil, nil, err
	}
	ids, err := grid.Validate(m)
	if err != nil {
		return nil, nil, err
	}
	return m, ids, nil
}
