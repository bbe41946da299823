package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	c := Defaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, 12*time.Second, c.Timeout())
	assert.Equal(t, 2*time.Hour, c.SessionTTL())
	assert.False(t, c.Redis.Enabled)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Root){
		"unknown backend":    func(c *Root) { c.Quota.Backend = "etcd" },
		"zero ceiling":       func(c *Root) { c.Quota.Ceiling = 0 },
		"bad url":            func(c *Root) { c.API.URL = "not a url" },
		"redis without addr": func(c *Root) { c.Quota.Backend = "redis" },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := Defaults()
			mut(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  url: https://api.lumix.example
quota:
  backend: redis
  ceiling: 5
redis:
  addr: 10.0.0.5:6379
`), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.lumix.example", c.API.URL)
	assert.Equal(t, 12, c.API.TimeoutSeconds, "unset keys keep their default")
	assert.Equal(t, 5, c.Quota.Ceiling)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "lumix_demo_ai_quota:", c.Quota.Prefix)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
