package banlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bans.txt")
	content := "123 smurfing\n" +
		"456\n" +
		"# comment line\n" +
		"\n" +
		"789 multiple accounts, see report\n" +
		"not-an-id\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	banned, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{123: true, 456: true, 789: true}, banned)
}

func TestLoadEmptyPath(t *testing.T) {
	banned, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, banned)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
