package driver

import "errors"

// Predefined errors
var (
	// ErrNoPathProvided is returned when the DSN carries no extract path
	ErrNoPathProvided = errors.New("quarry driver: no extract path provided")

	// ErrExtractNotFound is returned when the extract file does not exist
	ErrExtractNotFound = errors.New("quarry driver: extract file not found")

	// ErrExtractExists is returned when CreateModeCreate hits an existing file
	ErrExtractExists = errors.New("quarry driver: extract file already exists")

	// ErrNotAnExtract is returned when a file is not a quarry extract
	ErrNotAnExtract = errors.New("quarry driver: file is not a quarry extract")

	// ErrUnsupportedFormatVersion is returned for format versions this driver cannot handle
	ErrUnsupportedFormatVersion = errors.New("quarry driver: unsupported extract format version")

	// ErrInvalidCreateMode is returned for an unknown create mode in the DSN
	ErrInvalidCreateMode = errors.New("quarry driver: invalid create mode")

	// ErrStmtExecContextNotSupported is returned when statement does not support ExecContext
	ErrStmtExecContextNotSupported = errors.New("quarry driver: statement does not support ExecContext")

	// ErrStmtQueryContextNotSupported is returned when statement does not support QueryContext
	ErrStmtQueryContextNotSupported = errors.New("quarry driver: statement does not support QueryContext")

	// ErrBeginTxNotSupported is returned when underlying connection does not support BeginTx
	ErrBeginTxNotSupported = errors.New("quarry driver: underlying connection does not support BeginTx")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("quarry driver: underlying connection does not support PrepareContext")

	// ErrNotQuarryConnection is returned when a raw connection is not a quarry connection
	ErrNotQuarryConnection = errors.New("quarry driver: connection is not a quarry connection")
)
