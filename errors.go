package quarry

import "errors"

// Predefined errors
var (
	// ErrNoInputProvided indicates that no input path or filesystem was configured
	ErrNoInputProvided = errors.New("quarry: at least one input path must be provided")

	// ErrNoValidInputFiles indicates that no supported files were found
	ErrNoValidInputFiles = errors.New("quarry: no valid input files found")

	// ErrNilFilesystem indicates a nil fs.FS was added to the builder
	ErrNilFilesystem = errors.New("quarry: filesystem cannot be nil")

	// ErrBuildNotCalled indicates that Open was called before Build
	ErrBuildNotCalled = errors.New("quarry: builder not built, call Build first")

	// ErrEmptySchemaName indicates an empty schema name
	ErrEmptySchemaName = errors.New("quarry: schema name must not be empty")

	// ErrNoColumns indicates a table definition without columns
	ErrNoColumns = errors.New("quarry: table definition has no columns")

	// ErrTableNotFound indicates that a table is not present in the extract
	ErrTableNotFound = errors.New("quarry: table not found")

	// ErrColumnCountMismatch indicates a row with the wrong number of values
	ErrColumnCountMismatch = errors.New("quarry: row value count does not match column count")

	// ErrInserterClosed indicates use of an inserter after Execute or Close
	ErrInserterClosed = errors.New("quarry: inserter is closed")

	// ErrSameExtractPath indicates that a copy names the same file as source and destination
	ErrSameExtractPath = errors.New("quarry: source and destination extract must be different files")
)
