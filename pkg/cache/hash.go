package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/vizgrid/pkg/grid"
)

// hashKey builds "prefix:sha256(json(parts))".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashMatrix hashes the canonical JSON form of m, so that the same layout
// read from JSON, YAML or TOML maps to the same artifacts.
func HashMatrix(m grid.Matrix) string {
	data, _ := json.Marshal(m.Ints())
	return Hash(data)
}
