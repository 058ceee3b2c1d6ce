package quarry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quarrydata/quarry/domain/model"
	quarrydriver "github.com/quarrydata/quarry/driver"
)

// CopyExtract rewrites the extract at srcPath into a fresh extract at
// dstPath, stamped with the given format version. Every schema, table
// definition and row is carried over; the copy is written densely, so the
// result doubles as a defragmented rewrite.
//
// Returns the total number of rows copied. The copy fails if any table's
// row count differs between source and destination.
func CopyExtract(ctx context.Context, srcPath, dstPath string, formatVersion int) (int64, error) {
	// Opening the destination replaces its file, so copying an extract onto
	// itself would wipe the source before a single row moves.
	same, err := sameExtractFile(srcPath, dstPath)
	if err != nil {
		return 0, err
	}
	if same {
		return 0, fmt.Errorf("%w: %s", ErrSameExtractPath, srcPath)
	}

	src, err := Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	schemas, err := SchemaNames(ctx, src)
	if err != nil {
		return 0, err
	}

	var tables []*model.TableDefinition
	for _, schema := range schemas {
		names, err := TableNames(ctx, src, schema)
		if err != nil {
			return 0, err
		}
		for _, name := range names {
			definition, err := TableDefinition(ctx, src, name)
			if err != nil {
				return 0, err
			}
			tables = append(tables, definition)
		}
	}

	dst, err := OpenVersion(ctx, dstPath, CreateModeCreateAndReplace, formatVersion)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	for _, schema := range schemas {
		if err := CreateSchema(ctx, dst, schema); err != nil {
			return 0, err
		}
	}
	for _, definition := range tables {
		if err := CreateTable(ctx, dst, definition); err != nil {
			return 0, err
		}
	}

	// The rows move inside the destination connection: the source file is
	// attached read-only and copied table by table with INSERT ... SELECT.
	if _, err := dst.ExecContext(ctx,
		fmt.Sprintf("ATTACH DATABASE %s AS source", model.QuoteLiteral(srcPath))); err != nil {
		return 0, fmt.Errorf("failed to attach source extract: %w", err)
	}

	var total int64
	copyErr := func() error {
		for _, definition := range tables {
			identifier := definition.Name.Identifier()
			result, err := dst.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO main.%s SELECT * FROM source.%s", identifier, identifier))
			if err != nil {
				return fmt.Errorf("failed to copy table %s: %w", definition.Name, err)
			}
			copied, err := result.RowsAffected()
			if err != nil {
				return err
			}

			srcCount, err := QueryScalarInt64(ctx, src,
				fmt.Sprintf("SELECT COUNT(*) FROM %s", identifier))
			if err != nil {
				return err
			}
			if copied != srcCount {
				return fmt.Errorf("quarry: table %s copied %d of %d rows", definition.Name, copied, srcCount)
			}
			total += copied
		}
		return nil
	}()

	if _, err := dst.ExecContext(ctx, "DETACH DATABASE source"); err != nil && copyErr == nil {
		copyErr = fmt.Errorf("failed to detach source extract: %w", err)
	}
	if copyErr != nil {
		return 0, copyErr
	}
	return total, nil
}

// sameExtractFile reports whether srcPath and dstPath name the same file.
// The destination may not exist yet; a missing source is left for Open to
// report.
func sameExtractFile(srcPath, dstPath string) (bool, error) {
	srcAbs, err := filepath.Abs(srcPath)
	if err != nil {
		return false, err
	}
	dstAbs, err := filepath.Abs(dstPath)
	if err != nil {
		return false, err
	}
	if srcAbs == dstAbs {
		return true, nil
	}

	// Catch hard links and other aliases the path comparison misses.
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, nil
	}
	dstInfo, err := os.Stat(dstPath)
	if err != nil {
		return false, nil
	}
	return os.SameFile(srcInfo, dstInfo), nil
}

// DefragExtract rewrites an extract densely into dstPath, keeping its
// current format version. Re-running on its own output is a row-count no-op.
func DefragExtract(ctx context.Context, srcPath, dstPath string) (int64, error) {
	version, err := quarrydriver.ExtractFormatVersion(srcPath)
	if err != nil {
		return 0, err
	}
	return CopyExtract(ctx, srcPath, dstPath, version)
}

// RowCount returns the total number of rows across all user tables.
func RowCount(ctx context.Context, db *sql.DB) (int64, error) {
	schemas, err := SchemaNames(ctx, db)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, schema := range schemas {
		names, err := TableNames(ctx, db, schema)
		if err != nil {
			return 0, err
		}
		for _, name := range names {
			count, err := QueryScalarInt64(ctx, db,
				fmt.Sprintf("SELECT COUNT(*) FROM %s", name.Identifier()))
			if err != nil {
				return 0, err
			}
			total += count
		}
	}
	return total, nil
}
