package quarry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quarrydata/quarry/domain/model"
	quarrydriver "github.com/quarrydata/quarry/driver"
)

// DumpDatabase exports every table of the extract to outputDir, one file per
// table. By default tables are exported as CSV without compression; pass
// DumpOptions to change format and compression.
//
// Example usage:
//
//	// Default: export as CSV files
//	err := quarry.DumpDatabase(ctx, db, "./output")
//
//	// Export as gzip-compressed TSV files
//	options := model.NewDumpOptions().
//		WithFormat(model.OutputFormatTSV).
//		WithCompression(model.CompressionGZ)
//	err := quarry.DumpDatabase(ctx, db, "./output", options)
func DumpDatabase(ctx context.Context, db *sql.DB, outputDir string, opts ...model.DumpOptions) error {
	options := model.NewDumpOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	// Raw hands out the driver connection, which owns the export logic.
	return conn.Raw(func(driverConn any) error {
		quarryConn, ok := driverConn.(*quarrydriver.Connection)
		if !ok {
			return quarrydriver.ErrNotQuarryConnection
		}
		return quarryConn.DumpWithOptions(outputDir, options)
	})
}

// ExportTable exports a single table to outputPath in the format given by
// opts. The file extension is the caller's responsibility.
func ExportTable(ctx context.Context, db *sql.DB, name model.TableName, outputPath string, opts model.DumpOptions) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		quarryConn, ok := driverConn.(*quarrydriver.Connection)
		if !ok {
			return quarrydriver.ErrNotQuarryConnection
		}
		return quarryConn.DumpTable(name.StoredName(), outputPath, opts)
	})
}
