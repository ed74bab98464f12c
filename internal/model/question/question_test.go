package question

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	got, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), got)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	content := "questions:\n" +
		"  - title: Weather\n    prompt: \"  Will it rain in Lagos?  \"\n" +
		"  - prompt: Tell me a joke\n" +
		"  - title: Empty\n    prompt: \"\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []Question{
		{Title: "Weather", Prompt: "Will it rain in Lagos?"},
		{Title: "Tell me a joke", Prompt: "Tell me a joke"},
	}, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
