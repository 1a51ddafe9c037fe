package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddmeter/oddmeter/pkg/lm"
)

func TestConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	c1, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, lm.DefaultBaseURL, c1.BaseURL)
	assert.Equal(t, lm.DefaultModel, c1.Model)

	c1.Model = "babbage-002"
	c1.TimeoutSeconds = 10
	require.NoError(t, Save(dir, c1))

	c2, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.Equal(t, c1.Model, c2.Model)
	assert.Equal(t, c1.TimeoutSeconds, c2.TimeoutSeconds)
}

func TestReadOrCreate_CreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = os.Stat(filepath.Join(dir, configFileName))
	assert.NoError(t, err)
}

func TestReadOrCreate_EmptyDir(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)
}

func TestReadOrCreate_EnvOverrides(t *testing.T) {
	t.Setenv("ODDMETER_BASE_URL", "https://llm.example.com/v1")
	t.Setenv("ODDMETER_MODEL", "custom-model")

	c, err := ReadOrCreate(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://llm.example.com/v1", c.BaseURL)
	assert.Equal(t, "custom-model", c.Model)
}

func TestReadOrCreate_NormalizesBadValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName),
		[]byte("base_url: \"\"\nmodel: \"\"\ntimeout_seconds: 0\nmax_concurrency: -2\n"), 0600))

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, lm.DefaultBaseURL, c.BaseURL)
	assert.Equal(t, lm.DefaultModel, c.Model)
	assert.Equal(t, timeoutSecondsDefault, c.TimeoutSeconds)
	assert.Equal(t, maxConcurrencyDefault, c.MaxConcurrency)
}

func TestSave_NilArgs(t *testing.T) {
	assert.Error(t, Save("", getDefaultConfig()))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestTimeout(t *testing.T) {
	c := getDefaultConfig()
	assert.Equal(t, timeoutSecondsDefault, int(c.Timeout().Seconds()))
}
