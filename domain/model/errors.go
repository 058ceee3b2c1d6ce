package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a file contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrUnsupportedFileType is returned for files that cannot be loaded into an extract
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyFile is returned when an input file contains no data
	ErrEmptyFile = errors.New("empty input file")
)
