package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mchmarny/biascheck/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	c1, err := ReadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c1)
	_, err = os.Stat(path)
	require.NoError(t, err)

	c1.Delay = 2 * time.Second
	c1.MaxRetries = 5
	c1.Languages = []string{"en"}
	c1.DoNotStore = false

	require.NoError(t, Save(path, c1))

	c2, err := ReadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestConfig_MarshalJSON(t *testing.T) {
	c := Default()
	c.Delay = 1500 * time.Millisecond
	c.Languages = []string{"en"}

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, score.DefaultEndpoint, m["endpoint"])
	assert.Equal(t, c.Timeout.String(), m["timeout"])
	assert.Equal(t, "1.5s", m["delay"])
	assert.Equal(t, c.BackoffMax.String(), m["backoff_max"])
	assert.Equal(t, []any{"en"}, m["languages"])
	assert.Equal(t, true, m["do_not_store"])
	assert.NotContains(t, m, "Timeout")
}

func TestReadOrCreate_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("delay: 250ms\nlanguages: [en]\n"), 0600))

	c, err := ReadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.Delay)
	assert.Equal(t, []string{"en"}, c.Languages)
	assert.Equal(t, score.DefaultEndpoint, c.Endpoint)
	assert.Equal(t, score.DefaultTimeout, c.Timeout)
}

func TestReadOrCreate_Errors(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("delay: [not, a, duration"), 0600))
	_, err = ReadOrCreate(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("endpoint: not-a-url\n"), 0600))
	_, err = ReadOrCreate(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), FileName), nil))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"no delay", func(c *Config) { c.Delay = 0 }, true},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, false},
		{"bad endpoint", func(c *Config) { c.Endpoint = "commentanalyzer" }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, false},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, false},
		{"backoff max below initial", func(c *Config) { c.BackoffMax = time.Millisecond }, false},
		{"bad language", func(c *Config) { c.Languages = []string{"english"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	var nilConfig *Config
	assert.Error(t, nilConfig.Validate())
}

func TestResolveAPIKey(t *testing.T) {
	keyring.MockInit()

	t.Run("env first", func(t *testing.T) {
		require.NoError(t, keyring.Set(KeyringService, KeyringUser, "from-keychain"))
		t.Cleanup(func() { _ = keyring.Delete(KeyringService, KeyringUser) }) //nolint:errcheck
		t.Setenv(APIKeyEnvVar, " from-env ")

		k, err := ResolveAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "from-env", k)
	})

	t.Run("keychain fallback", func(t *testing.T) {
		require.NoError(t, keyring.Set(KeyringService, KeyringUser, "from-keychain"))
		t.Cleanup(func() { _ = keyring.Delete(KeyringService, KeyringUser) }) //nolint:errcheck
		t.Setenv(APIKeyEnvVar, "")

		k, err := ResolveAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "from-keychain", k)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "")

		k, err := ResolveAPIKey()
		assert.Empty(t, k)
		assert.ErrorIs(t, err, score.ErrConfiguration)
		assert.ErrorContains(t, err, APIKeyEnvVar)
	})
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "***", Redact("abc"))
	assert.Equal(t, "*****6789", Redact("AIza06789"))
}
