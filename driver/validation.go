package driver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ApplicationID is the magic stamped into the application_id header field of
// every quarry extract ("QRY1").
const ApplicationID = 0x51525931

const (
	// MinFormatVersion is the oldest extract format this driver can open.
	MinFormatVersion = 1
	// CurrentFormatVersion is the format version stamped into new extracts.
	CurrentFormatVersion = 2
)

// SQLite database header layout. The header is 100 bytes; user_version and
// application_id are stored big-endian at fixed offsets.
const (
	headerSize          = 100
	userVersionOffset   = 60
	applicationIDOffset = 68
)

var sqliteMagic = []byte("SQLite format 3\x00")

// ValidateExtractFile checks that the file at path is a quarry extract with a
// supported format version. It reads only the database header.
func ValidateExtractFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrExtractNotFound, path)
		}
		return fmt.Errorf("failed to open extract file: %w", err)
	}
	defer func() { _ = file.Close() }()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("%w: %s", ErrNotAnExtract, path)
	}

	if !bytes.Equal(header[:len(sqliteMagic)], sqliteMagic) {
		return fmt.Errorf("%w: %s", ErrNotAnExtract, path)
	}

	appID := binary.BigEndian.Uint32(header[applicationIDOffset:])
	if appID != ApplicationID {
		return fmt.Errorf("%w: %s", ErrNotAnExtract, path)
	}

	version := int(binary.BigEndian.Uint32(header[userVersionOffset:]))
	if version < MinFormatVersion || version > CurrentFormatVersion {
		return fmt.Errorf("%w: format version %d", ErrUnsupportedFormatVersion, version)
	}
	return nil
}

// ExtractFormatVersion reads the format version of an extract file without
// opening a connection.
func ExtractFormatVersion(path string) (int, error) {
	if err := ValidateExtractFile(path); err != nil {
		return 0, err
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open extract file: %w", err)
	}
	defer func() { _ = file.Close() }()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotAnExtract, path)
	}
	return int(binary.BigEndian.Uint32(header[userVersionOffset:])), nil
}
