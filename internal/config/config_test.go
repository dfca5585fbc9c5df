package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlConfig = `
server:
  addr: ":9090"
  static_dir: "./static"
logging:
  level: debug
  console: true
database:
  path: "./data/homehub.db"
  busy_timeout: "3s"
push:
  url: "https://push.example.com/send"
  rate_per_sec: 3
scheduler:
  timezone: "Asia/Shanghai"
  menu_push_at: "11:30"
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", yamlConfig)

	cfg, err := NewManager(path).Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, "./data/homehub.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Push.RatePerSec)
	assert.Equal(t, "Asia/Shanghai", cfg.Scheduler.Timezone)
	assert.Equal(t, "11:30", cfg.Scheduler.MenuPushAt)
	assert.Nil(t, cfg.Weather)
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{
		"server": {"addr": ":8081"},
		"logging": {"level": "info", "console": true},
		"database": {"path": ":memory:"},
		"push": {"url": "https://push.example.com"},
		"scheduler": {},
		"weather": {"url": "https://weather.example.com", "key": "k", "city": "110101"}
	}`)

	cfg, err := NewManager(path).Parse()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	require.NotNil(t, cfg.Weather)
	assert.Equal(t, "110101", cfg.Weather.City)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "config.yaml", content: "server:\n  addr: \":1\"\n  bogus: true\n"},
		{name: "json", file: "config.json", content: `{"server": {"addr": ":1", "bogus": true}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := NewManager(path).Parse()
			require.Error(t, err)
		})
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"server": {"addr": ":1"}}{"extra": 1}`)
	_, err := NewManager(path).Parse()
	require.Error(t, err)
}

func TestLoadCommitGet(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", yamlConfig)
	m := NewManager(path)

	require.Nil(t, m.Get())
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Same(t, cfg, m.Get())
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		def     time.Duration
		want    time.Duration
		wantErr bool
	}{
		{name: "empty uses default", raw: "", def: 5 * time.Second, want: 5 * time.Second},
		{name: "parsed", raw: "2m", def: time.Second, want: 2 * time.Minute},
		{name: "whitespace", raw: "  1h ", def: 0, want: time.Hour},
		{name: "garbage", raw: "soon", wantErr: true},
		{name: "negative", raw: "-3s", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationOrDefault("field", tt.raw, tt.def)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringifyKeys(t *testing.T) {
	t.Parallel()
	in := map[any]any{
		"a": []any{map[any]any{1: "x"}},
	}
	out := stringifyKeys(in)
	m, ok := out.(map[string]any)
	require.True(t, ok)
	list, ok := m["a"].([]any)
	require.True(t, ok)
	inner, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", inner["1"])
}
