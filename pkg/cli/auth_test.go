package cli

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetToken_EnvPrecedence(t *testing.T) {
	t.Setenv("ODDMETER_API_TOKEN", "  tok-env  ")
	t.Setenv("OPENAI_API_KEY", "tok-openai")

	assert.Equal(t, "tok-env", getToken())
}

func TestGetToken_SecondEnvVar(t *testing.T) {
	t.Setenv("ODDMETER_API_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "tok-openai")

	assert.Equal(t, "tok-openai", getToken())
}

func TestTokenFile_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, saveTokenFile("tok-file"))

	got, err := getTokenFile()
	require.NoError(t, err)
	assert.Equal(t, "tok-file", got)
}

func TestGetTokenFile_Trims(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tokenPath := path.Join(getHomeDir(), tokenFileName)
	require.NoError(t, os.WriteFile(tokenPath, []byte("  tok-padded\n"), 0600))

	got, err := getTokenFile()
	require.NoError(t, err)
	assert.Equal(t, "tok-padded", got)
}

func TestGetTokenFile_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := getTokenFile()
	assert.Error(t, err)
}
