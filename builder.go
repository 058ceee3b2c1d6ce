package quarry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quarrydata/quarry/domain/model"
)

// ExtractBuilder creates an extract file from data files. It collects input
// paths and embedded filesystems, validates them with Build, and writes the
// extract with Open.
//
// The typical usage pattern is:
//
//	builder := quarry.NewExtractBuilder("orders.quarry").
//		AddPath("orders.csv").
//		AddPath("customers.parquet")
//	validated, err := builder.Build(ctx)
//	if err != nil {
//		return err
//	}
//	db, err := validated.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	defer validated.Cleanup()
type ExtractBuilder struct {
	// extractPath is the extract file to create
	extractPath string
	// mode controls how an existing extract file is treated
	mode CreateMode
	// schema is the schema new tables are created in
	schema string
	// paths contains regular file and directory paths
	paths []string
	// filesystems contains fs.FS instances
	filesystems []fs.FS
	// collectedPaths contains all file paths after Build validation
	collectedPaths []string
	// tempFiles tracks temporary files created for cleanup
	tempFiles []string
}

// NewExtractBuilder creates a builder that writes the extract at extractPath.
// The default create mode replaces an existing extract; change it with
// WithCreateMode.
func NewExtractBuilder(extractPath string) *ExtractBuilder {
	return &ExtractBuilder{
		extractPath:    extractPath,
		mode:           CreateModeCreateAndReplace,
		schema:         model.DefaultSchema,
		paths:          make([]string, 0),
		filesystems:    make([]fs.FS, 0),
		collectedPaths: make([]string, 0),
		tempFiles:      make([]string, 0),
	}
}

// WithCreateMode sets how an existing extract file is treated.
// Returns the builder for method chaining.
func (b *ExtractBuilder) WithCreateMode(mode CreateMode) *ExtractBuilder {
	b.mode = mode
	return b
}

// WithSchema places the loaded tables in the given schema instead of
// "public". Returns the builder for method chaining.
func (b *ExtractBuilder) WithSchema(schema string) *ExtractBuilder {
	b.schema = schema
	return b
}

// AddPath adds a regular file or directory path to the builder.
// The path can be:
// - A single file with supported extensions (.csv, .tsv, .parquet, .xlsx, and compressed variants)
// - A directory path (all supported files will be loaded recursively)
//
// Returns the builder for method chaining.
func (b *ExtractBuilder) AddPath(path string) *ExtractBuilder {
	b.paths = append(b.paths, path)
	return b
}

// AddPaths adds multiple file or directory paths at once.
// Returns the builder for method chaining.
func (b *ExtractBuilder) AddPaths(paths ...string) *ExtractBuilder {
	b.paths = append(b.paths, paths...)
	return b
}

// AddFS adds all supported files from an fs.FS filesystem to the builder.
// This is particularly useful for embedded filesystems using go:embed.
// Matching files are copied to temporary files during Build; use Cleanup to
// remove them when done.
//
// Returns the builder for method chaining.
func (b *ExtractBuilder) AddFS(filesystem fs.FS) *ExtractBuilder {
	b.filesystems = append(b.filesystems, filesystem)
	return b
}

// Build validates all configured inputs and prepares the builder for Open.
// Directories are expanded recursively, filesystem entries are copied to
// temporary files, and every collected file must have a supported extension.
func (b *ExtractBuilder) Build(ctx context.Context) (*ExtractBuilder, error) {
	if len(b.paths) == 0 && len(b.filesystems) == 0 {
		return nil, ErrNoInputProvided
	}

	b.collectedPaths = make([]string, 0)

	for _, path := range b.paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load file: path does not exist: %s", path)
			}
			return nil, fmt.Errorf("failed to stat path %s: %w", path, err)
		}

		if info.IsDir() {
			collected, err := collectDir(path)
			if err != nil {
				return nil, err
			}
			b.collectedPaths = append(b.collectedPaths, collected...)
			continue
		}

		if !model.IsSupportedFile(path) {
			return nil, fmt.Errorf("unsupported file type: %s", path)
		}
		b.collectedPaths = append(b.collectedPaths, path)
	}

	for _, filesystem := range b.filesystems {
		if filesystem == nil {
			return nil, ErrNilFilesystem
		}
		paths, err := b.processFSInput(ctx, filesystem)
		if err != nil {
			return nil, fmt.Errorf("failed to process FS input: %w", err)
		}
		b.collectedPaths = append(b.collectedPaths, paths...)
	}

	if len(b.collectedPaths) == 0 {
		return nil, ErrNoValidInputFiles
	}
	return b, nil
}

// Open creates the extract file and loads every collected input file as a
// table. Table names are derived from file names without extensions:
// "orders.csv.gz" becomes table "orders" in the configured schema.
//
// The returned connection stays open on the created extract. The caller is
// responsible for closing it and for calling Cleanup to remove temporary
// files created from embedded filesystems.
func (b *ExtractBuilder) Open(ctx context.Context) (*sql.DB, error) {
	if len(b.collectedPaths) == 0 {
		return nil, ErrBuildNotCalled
	}

	db, err := OpenContext(ctx, b.extractPath, b.mode)
	if err != nil {
		return nil, err
	}

	for _, path := range b.collectedPaths {
		if err := b.loadFile(ctx, db, path); err != nil {
			closeErr := db.Close()
			if closeErr != nil {
				return nil, errors.Join(err, fmt.Errorf("failed to close extract: %w", closeErr))
			}
			return nil, err
		}
	}
	return db, nil
}

// Cleanup removes temporary files created from embedded filesystems.
func (b *ExtractBuilder) Cleanup() error {
	var errs []error
	for _, tempFile := range b.tempFiles {
		if err := os.Remove(tempFile); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove temp file %s: %w", tempFile, err))
		}
	}
	b.tempFiles = b.tempFiles[:0]
	return errors.Join(errs...)
}

// loadFile parses one input file and loads it as a table.
func (b *ExtractBuilder) loadFile(ctx context.Context, db *sql.DB, path string) error {
	table, err := model.NewFile(path).ToTable()
	if err != nil {
		return fmt.Errorf("failed to load file %s: %w", path, err)
	}

	name := model.NewTableName(b.schema, table.Name().Name())
	definition := model.NewTableDefinition(name, table.Columns()...)
	if err := CreateTable(ctx, db, definition); err != nil {
		return err
	}

	inserter, err := NewInserter(ctx, db, definition)
	if err != nil {
		return err
	}
	for _, record := range table.Records() {
		if err := inserter.AddRecord(record); err != nil {
			closeErr := inserter.Close()
			if closeErr != nil {
				return errors.Join(err, closeErr)
			}
			return err
		}
	}
	if _, err := inserter.Execute(); err != nil {
		return err
	}
	return nil
}

// collectDir walks a directory recursively and returns all supported files.
func collectDir(dir string) ([]string, error) {
	var collected []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if model.IsSupportedFile(path) {
			collected = append(collected, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}
	return collected, nil
}

// processFSInput copies all supported files from an fs.FS to temporary files.
func (b *ExtractBuilder) processFSInput(ctx context.Context, filesystem fs.FS) ([]string, error) {
	var matches []string
	err := fs.WalkDir(filesystem, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if model.IsSupportedFile(path) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk filesystem: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoValidInputFiles
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		tempPath, err := b.copyFSToTemp(ctx, filesystem, match)
		if err != nil {
			return nil, fmt.Errorf("failed to copy file %s: %w", match, err)
		}
		paths = append(paths, tempPath)
	}
	return paths, nil
}

// copyFSToTemp copies a file from fs.FS to a temporary file. The original
// base name is kept in the temp file name so table naming still works.
func (b *ExtractBuilder) copyFSToTemp(_ context.Context, filesystem fs.FS, path string) (string, error) {
	file, err := filesystem.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open FS file: %w", err)
	}
	defer file.Close()

	tempDir, err := os.MkdirTemp("", "quarry-fs-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	tempPath := filepath.Join(tempDir, filepath.Base(path))
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tempFile, file); err != nil {
		closeErr := tempFile.Close()
		removeErr := os.RemoveAll(tempDir)
		return "", errors.Join(fmt.Errorf("failed to copy content: %w", err), closeErr, removeErr)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	b.tempFiles = append(b.tempFiles, tempPath, tempDir)
	return tempPath, nil
}
