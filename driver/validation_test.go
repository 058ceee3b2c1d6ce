package driver

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeHeader writes a minimal SQLite-shaped header with the given
// application id and user version.
func writeFakeHeader(t *testing.T, appID uint32, version uint32) string {
	t.Helper()

	header := make([]byte, headerSize)
	copy(header, sqliteMagic)
	binary.BigEndian.PutUint32(header[userVersionOffset:], version)
	binary.BigEndian.PutUint32(header[applicationIDOffset:], appID)

	path := filepath.Join(t.TempDir(), "header.quarry")
	require.NoError(t, os.WriteFile(path, header, 0600))
	return path
}

func TestValidateExtractFile(t *testing.T) {
	t.Parallel()

	t.Run("Valid header", func(t *testing.T) {
		t.Parallel()

		path := writeFakeHeader(t, ApplicationID, CurrentFormatVersion)
		assert.NoError(t, ValidateExtractFile(path))
	})

	t.Run("Oldest supported version", func(t *testing.T) {
		t.Parallel()

		path := writeFakeHeader(t, ApplicationID, MinFormatVersion)
		assert.NoError(t, ValidateExtractFile(path))
	})

	t.Run("Missing file", func(t *testing.T) {
		t.Parallel()

		err := ValidateExtractFile(filepath.Join(t.TempDir(), "missing.quarry"))
		assert.ErrorIs(t, err, ErrExtractNotFound)
	})

	t.Run("Too short for a header", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "short.quarry")
		require.NoError(t, os.WriteFile(path, []byte("tiny"), 0600))
		assert.ErrorIs(t, ValidateExtractFile(path), ErrNotAnExtract)
	})

	t.Run("Wrong magic", func(t *testing.T) {
		t.Parallel()

		header := make([]byte, headerSize)
		copy(header, "Not a database 0")
		path := filepath.Join(t.TempDir(), "magic.quarry")
		require.NoError(t, os.WriteFile(path, header, 0600))
		assert.ErrorIs(t, ValidateExtractFile(path), ErrNotAnExtract)
	})

	t.Run("Foreign application id", func(t *testing.T) {
		t.Parallel()

		path := writeFakeHeader(t, 0xDEADBEEF, CurrentFormatVersion)
		assert.ErrorIs(t, ValidateExtractFile(path), ErrNotAnExtract)
	})

	t.Run("Format version too new", func(t *testing.T) {
		t.Parallel()

		path := writeFakeHeader(t, ApplicationID, CurrentFormatVersion+1)
		assert.ErrorIs(t, ValidateExtractFile(path), ErrUnsupportedFormatVersion)
	})

	t.Run("Format version zero", func(t *testing.T) {
		t.Parallel()

		path := writeFakeHeader(t, ApplicationID, 0)
		assert.ErrorIs(t, ValidateExtractFile(path), ErrUnsupportedFormatVersion)
	})
}

func TestExtractFormatVersion(t *testing.T) {
	t.Parallel()

	path := writeFakeHeader(t, ApplicationID, MinFormatVersion)
	version, err := ExtractFormatVersion(path)
	require.NoError(t, err)
	assert.Equal(t, MinFormatVersion, version)

	_, err = ExtractFormatVersion(filepath.Join(t.TempDir(), "missing.quarry"))
	assert.ErrorIs(t, err, ErrExtractNotFound)
}
