package replay

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validMetadata = "Root:\n" +
	"\tMod: ra\n" +
	"\tMapUid: ABCDEF\n" +
	"\tMapTitle: Behind the Veil\n" +
	"\tStartTimeUtc: 2026-03-01 12-00-00\n" +
	"\tEndTimeUtc: 2026-03-01 12-24-30\n" +
	"Player@0:\n" +
	"\tFingerprint: fp-winner\n" +
	"\tName: tiger\n" +
	"\tFactionName: Soviet\n" +
	"\tSelectedFactionName: Any\n" +
	"\tOutcome: Won\n" +
	"Player@1:\n" +
	"\tFingerprint: fp-loser\n" +
	"\tName: wolf\n" +
	"\tFactionName: Allies\n" +
	"\tOutcome: Lost\n"

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "match"+Extension)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecodeValid(t *testing.T) {
	path := writeSource(t, validMetadata)

	res, err := NewMetadataDecoder().Decode(path)
	require.NoError(t, err)

	assert.Equal(t, path, res.Filename)
	assert.Equal(t, "ra", res.Mod)
	assert.Equal(t, "ABCDEF", res.MapUID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 24, 30, 0, time.UTC), res.EndTime)

	assert.Equal(t, "fp-winner", res.Player0.Fingerprint)
	assert.Equal(t, "Soviet", res.Player0.Faction)
	assert.Equal(t, "Any", res.Player0.SelectedFaction)
	assert.Equal(t, "fp-loser", res.Player1.Fingerprint)
	// SelectedFactionName missing falls back to the effective faction.
	assert.Equal(t, "Allies", res.Player1.SelectedFaction)
}

func TestDecodeErrorsAreDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"missing root":  "Player@0:\n\tFingerprint: fp\n\tOutcome: Won\n",
		"bad timestamp": "Root:\n\tMod: ra\n\tStartTimeUtc: yesterday\n",
		"one player": "Root:\n\tMod: ra\n\tStartTimeUtc: 2026-03-01 12-00-00\n\tEndTimeUtc: 2026-03-01 12-30-00\n" +
			"Player@0:\n\tFingerprint: fp\n\tOutcome: Won\n",
		"no winner": "Root:\n\tMod: ra\n\tStartTimeUtc: 2026-03-01 12-00-00\n\tEndTimeUtc: 2026-03-01 12-30-00\n" +
			"Player@0:\n\tFingerprint: fp-a\n\tOutcome: Lost\n" +
			"Player@1:\n\tFingerprint: fp-b\n\tOutcome: Lost\n",
		"missing fingerprint": "Root:\n\tMod: ra\n\tStartTimeUtc: 2026-03-01 12-00-00\n\tEndTimeUtc: 2026-03-01 12-30-00\n" +
			"Player@0:\n\tName: tiger\n\tOutcome: Won\n" +
			"Player@1:\n\tFingerprint: fp-b\n\tOutcome: Lost\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMetadataDecoder().Decode(writeSource(t, content))
			require.Error(t, err)
			var derr *DecodeError
			assert.True(t, errors.As(err, &derr))
		})
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := NewMetadataDecoder().Decode(filepath.Join(t.TempDir(), "nope"+Extension))
	var derr *DecodeError
	assert.True(t, errors.As(err, &derr))
}
