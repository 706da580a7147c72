package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.Rows != 3 || cfg.Layout.Columns != 3 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Server.Addr != ":8765" || cfg.Server.SessionTTL != 24*time.Hour {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestParse(t *testing.T) {
	doc := `
[layout]
rows = 4
style = "dark"

[cache]
backend = "redis"

[redis]
addr = "cache:6379"
db = 2

[server]
session_ttl = "30m"
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Layout.Rows != 4 || cfg.Layout.Columns != 3 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.Style != "dark" || cfg.Cache.Backend != BackendRedis {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("session_ttl = %v", cfg.Server.SessionTTL)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `[layout`},
		{"unknown key", "[layout]\nheight = 3\n"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n"},
		{"bad bus", "[bus]\nbackend = \"kafka\"\n"},
		{"rows too large", "[layout]\nrows = 65\n"},
		{"zero columns", "[layout]\ncolumns = 0\n"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n"},
		{"bad tokens", "[layout]\ntokens = \"random\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Parse() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestLoadDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvAddr, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without file error = %v", err)
	}
	if cfg.Bus.Backend != BackendMemory {
		t.Errorf("bus = %q", cfg.Bus.Backend)
	}

	path := filepath.Join(dir, "vizgrid", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[bus]\nbackend = \"redis\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bus.Backend != BackendRedis {
		t.Errorf("bus = %q, want redis", cfg.Bus.Backend)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() of a missing explicit path should fail")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvRedisAddr, "redis.internal:6380")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")
	t.Setenv(EnvAddr, "127.0.0.1:9000")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Store.MongoURI != "mongodb://db:27017" {
		t.Errorf("mongo uri = %q", cfg.Store.MongoURI)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Layout.Style = "dark"
	if err := cfg.WriteFile(path, false); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := cfg.WriteFile(path, false); err == nil {
		t.Error("WriteFile() should refuse to overwrite")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(written) error = %v", err)
	}
	if got.Layout.Style != "dark" || got.Server.SessionTTL != cfg.Server.SessionTTL {
		t.Errorf("round trip = %+v", got)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[layout]", "[server]", `addr = ":8765"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("encoded config missing %q:\n%s", want, buf.String())
		}
	}
}
