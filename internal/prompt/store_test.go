package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissingFileReturnsDefault(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "system_prompt.json"))
	assert.Equal(t, DefaultPrompt, s.Get())
}

func TestSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "system_prompt.json")
	s := NewStore(path)

	require.NoError(t, s.Set("You are the support agent for Acme appliances."))
	assert.Equal(t, "You are the support agent for Acme appliances.", s.Get())

	// A second store over the same file sees the saved prompt.
	assert.Equal(t, "You are the support agent for Acme appliances.", NewStore(path).Get())
}

func TestGetCorruptFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path)
	assert.Equal(t, DefaultPrompt, s.Get())
}

func TestGetEmptyPromptFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.json")
	s := NewStore(path)

	require.NoError(t, s.Set(""))
	assert.Equal(t, DefaultPrompt, s.Get())
}
