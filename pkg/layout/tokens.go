package layout

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/vizgrid/pkg/grid"
)

// TokenSource produces placement tokens. Every token a source returns must be
// distinct from every other token it has returned, and must be usable as a
// CSS grid-area name.
type TokenSource interface {
	Token(id grid.RegionID) string
}

// TokenFunc adapts a function to [TokenSource].
type TokenFunc func(grid.RegionID) string

// Token calls f(id).
func (f TokenFunc) Token(id grid.RegionID) string { return f(id) }

// UUIDTokens returns a source of random tokens. Tokens are "g" followed by the
// 32 hex digits of a random UUID, so they never start with a digit and never
// repeat across layouts.
func UUIDTokens() TokenSource {
	return TokenFunc(func(grid.RegionID) string {
		return "g" + strings.ReplaceAll(uuid.NewString(), "-", "")
	})
}

// SequentialTokens returns a source of deterministic tokens prefix1, prefix2,
// ... counting across every layout that shares the source. The prefix must
// start with a letter.
func SequentialTokens(prefix string) TokenSource {
	var (
		mu sync.Mutex
		n  int
	)
	return TokenFunc(func(grid.RegionID) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + strconv.Itoa(n)
	})
}

// TokenSourceByName resolves a configured token strategy: "uuid" (or empty)
// and "sequential". Unknown names return nil.
func TokenSourceByName(name string) TokenSource {
	switch name {
	case "", "uuid":
		return UUIDTokens()
	case "sequential":
		return SequentialTokens("area")
	}
	return nil
}
