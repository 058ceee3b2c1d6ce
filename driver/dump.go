package driver

import (
	"compress/gzip"
	"database/sql/driver"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"

	"github.com/quarrydata/quarry/domain/model"
)

// catalogTable is the internal bookkeeping table every extract carries.
// It never shows up in catalog listings or exports.
const catalogTable = "quarry_catalog"

// Dump exports all tables of the extract to outputDir as CSV files.
func (conn *Connection) Dump(outputDir string) error {
	return conn.DumpWithOptions(outputDir, model.NewDumpOptions())
}

// DumpWithOptions exports all tables of the extract to outputDir in the
// requested format. One file is written per table, named after the table's
// stored identifier.
func (conn *Connection) DumpWithOptions(outputDir string, opts model.DumpOptions) error {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tableNames, err := conn.TableNames()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for _, tableName := range tableNames {
		outputPath := filepath.Join(outputDir, tableName+opts.FileExtension())
		if err := conn.DumpTable(tableName, outputPath, opts); err != nil {
			return fmt.Errorf("failed to export table %s: %w", tableName, err)
		}
	}
	return nil
}

// DumpTable exports a single table to outputPath in the requested format.
func (conn *Connection) DumpTable(tableName, outputPath string, opts model.DumpOptions) error {
	columns, records, err := conn.readTable(tableName)
	if err != nil {
		return err
	}

	switch opts.Format {
	case model.OutputFormatCSV:
		return writeDelimited(outputPath, ',', columns, records, opts.Compression)
	case model.OutputFormatTSV:
		return writeDelimited(outputPath, '\t', columns, records, opts.Compression)
	case model.OutputFormatParquet:
		return writeParquet(outputPath, columns, records)
	case model.OutputFormatXLSX:
		return writeXLSX(outputPath, columns, records)
	default:
		return fmt.Errorf("unsupported output format: %v", opts.Format)
	}
}

// TableNames retrieves all user table identifiers stored in the extract.
func (conn *Connection) TableNames() ([]string, error) {
	rows, err := conn.query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> ? ORDER BY name`,
		[]driver.Value{catalogTable},
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	dest := make([]driver.Value, 1)
	for {
		if err := rows.Next(dest); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if name, ok := dest[0].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// readTable reads the full contents of one table as strings. NULL values
// become empty strings, matching the CSV representation of missing data.
func (conn *Connection) readTable(tableName string) ([]string, []model.Record, error) {
	columns, err := conn.tableColumns(tableName)
	if err != nil {
		return nil, nil, err
	}

	rows, err := conn.query(fmt.Sprintf("SELECT * FROM %s", model.QuoteIdentifier(tableName)), nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	dest := make([]driver.Value, len(columns))
	for {
		if err := rows.Next(dest); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, err
		}
		record := make(model.Record, len(dest))
		for i, val := range dest {
			record[i] = formatValue(val)
		}
		records = append(records, record)
	}
	return columns, records, nil
}

// tableColumns retrieves the column names of a table in declared order.
func (conn *Connection) tableColumns(tableName string) ([]string, error) {
	rows, err := conn.query(fmt.Sprintf("PRAGMA table_info(%s)", model.QuoteIdentifier(tableName)), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columnCount := len(rows.Columns())
	dest := make([]driver.Value, columnCount)
	var columns []string
	for {
		if err := rows.Next(dest); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		// PRAGMA table_info: cid, name, type, notnull, dflt_value, pk
		if name, ok := dest[1].(string); ok {
			columns = append(columns, name)
		}
	}
	return columns, nil
}

// formatValue renders a driver value as its textual form.
func formatValue(val driver.Value) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// writeDelimited writes header and records as CSV or TSV, optionally wrapped
// in a compression writer.
func writeDelimited(outputPath string, comma rune, columns []string, records []model.Record, compression model.CompressionType) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	var writer io.Writer = file
	closers := []func() error{file.Close}

	switch compression {
	case model.CompressionNone:
	case model.CompressionGZ:
		gzWriter := gzip.NewWriter(file)
		writer = gzWriter
		closers = append(closers, gzWriter.Close)
	case model.CompressionXZ:
		xzWriter, err := xz.NewWriter(file)
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
		writer = xzWriter
		closers = append(closers, xzWriter.Close)
	case model.CompressionZSTD:
		zstdWriter, err := zstd.NewWriter(file)
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		writer = zstdWriter
		closers = append(closers, zstdWriter.Close)
	default:
		_ = file.Close()
		return fmt.Errorf("unsupported compression type: %v", compression)
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = comma

	writeErr := csvWriter.Write(columns)
	if writeErr == nil {
		for _, record := range records {
			if writeErr = csvWriter.Write(record); writeErr != nil {
				break
			}
		}
	}
	if writeErr == nil {
		csvWriter.Flush()
		writeErr = csvWriter.Error()
	}

	// Close compression layers before the file, innermost last.
	var closeErrs []error
	for i := len(closers) - 1; i >= 0; i-- {
		closeErrs = append(closeErrs, closers[i]())
	}
	if writeErr != nil {
		return writeErr
	}
	return errors.Join(closeErrs...)
}

// writeParquet writes header and records as a Parquet file with UTF8 columns.
func writeParquet(outputPath string, columns []string, records []model.Record) error {
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, record := range records {
		for i := range columns {
			fieldBuilder := builder.Field(i).(*array.StringBuilder)
			if i < len(record) {
				fieldBuilder.Append(record[i])
			} else {
				fieldBuilder.AppendNull()
			}
		}
	}

	arrowRecord := builder.NewRecord()
	defer arrowRecord.Release()

	arrowTable := array.NewTableFromRecords(schema, []arrow.Record{arrowRecord})
	defer arrowTable.Release()

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writeErr := pqarrow.WriteTable(
		arrowTable,
		file,
		arrowTable.NumRows(),
		parquet.NewWriterProperties(),
		pqarrow.DefaultWriterProps(),
	)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to write parquet file: %w", writeErr)
	}
	return closeErr
}

// writeXLSX writes header and records as a single-sheet XLSX workbook.
func writeXLSX(outputPath string, columns []string, records []model.Record) error {
	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	sheet := workbook.GetSheetName(0)

	headerRow := make([]any, len(columns))
	for i, name := range columns {
		headerRow[i] = name
	}
	if err := workbook.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for rowIdx, record := range records {
		row := make([]any, len(record))
		for i, val := range record {
			row[i] = val
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write xlsx row: %w", err)
		}
	}

	if err := workbook.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save xlsx file: %w", err)
	}
	return nil
}
