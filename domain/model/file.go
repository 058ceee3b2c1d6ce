package model

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

// FileType represents supported input file types.
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeParquet represents Apache Parquet file type
	FileTypeParquet
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtTSV is the TSV file extension
	ExtTSV = ".tsv"
	// ExtParquet is the Parquet file extension
	ExtParquet = ".parquet"
	// ExtXLSX is the XLSX file extension
	ExtXLSX = ".xlsx"
	// ExtGZ is the gzip compression extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 compression extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz compression extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstd compression extension
	ExtZSTD = ".zst"
)

// File represents an input file that can be converted to a Table.
type File struct {
	path     string
	fileType FileType
}

// NewFile creates a new File.
func NewFile(path string) *File {
	return &File{
		path:     path,
		fileType: detectFileType(path),
	}
}

// IsSupportedFile checks if the file has a supported extension. Parquet and
// XLSX are container formats and never carry a compression extension.
func IsSupportedFile(fileName string) bool {
	fileName = strings.ToLower(fileName)

	if strings.HasSuffix(fileName, ExtParquet) || strings.HasSuffix(fileName, ExtXLSX) {
		return true
	}
	for _, ext := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		if strings.HasSuffix(fileName, ext) {
			fileName = strings.TrimSuffix(fileName, ext)
			break
		}
	}
	return strings.HasSuffix(fileName, ExtCSV) || strings.HasSuffix(fileName, ExtTSV)
}

// SupportedFileExtPatterns returns glob patterns for all supported files.
func SupportedFileExtPatterns() []string {
	patterns := []string{"*" + ExtCSV, "*" + ExtTSV, "*" + ExtParquet, "*" + ExtXLSX}
	for _, comp := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		patterns = append(patterns, "*"+ExtCSV+comp, "*"+ExtTSV+comp)
	}
	return patterns
}

// Path returns file path
func (f *File) Path() string {
	return f.path
}

// Type returns file type
func (f *File) Type() FileType {
	return f.fileType
}

// IsCompressed returns true if file is compressed
func (f *File) IsCompressed() bool {
	for _, ext := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		if strings.HasSuffix(f.path, ext) {
			return true
		}
	}
	return false
}

// ToTable parses the file into a Table. The table name is derived from the
// file name.
func (f *File) ToTable() (*Table, error) {
	switch f.fileType {
	case FileTypeCSV:
		return f.parseDelimited(',')
	case FileTypeTSV:
		return f.parseDelimited('\t')
	case FileTypeParquet:
		return f.parseParquet()
	case FileTypeXLSX:
		return f.parseXLSX()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, f.path)
	}
}

func detectFileType(path string) FileType {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ExtParquet) {
		return FileTypeParquet
	}
	if strings.HasSuffix(lower, ExtXLSX) {
		return FileTypeXLSX
	}
	for _, ext := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		if strings.HasSuffix(lower, ext) {
			lower = strings.TrimSuffix(lower, ext)
			break
		}
	}
	switch {
	case strings.HasSuffix(lower, ExtCSV):
		return FileTypeCSV
	case strings.HasSuffix(lower, ExtTSV):
		return FileTypeTSV
	default:
		return FileTypeUnsupported
	}
}

// openReader opens the file and wraps it with a decompression reader when the
// extension calls for one. The returned cleanup closes every layer.
func (f *File) openReader() (io.Reader, func() error, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	closeFile := func() error { return file.Close() }

	// Match the suffix the way detectFileType does, so "data.CSV.GZ" gets
	// decompressed and not fed to the parser raw.
	lower := strings.ToLower(f.path)
	switch {
	case strings.HasSuffix(lower, ExtGZ):
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, func() error {
			return errors.Join(gzReader.Close(), file.Close())
		}, nil
	case strings.HasSuffix(lower, ExtBZ2):
		return bzip2.NewReader(file), closeFile, nil
	case strings.HasSuffix(lower, ExtXZ):
		xzReader, err := xz.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, closeFile, nil
	case strings.HasSuffix(lower, ExtZSTD):
		decoder, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return file.Close()
		}, nil
	default:
		return file, closeFile, nil
	}
}

func (f *File) parseDelimited(delimiter rune) (*Table, error) {
	reader, cleanup, err := f.openReader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cleanup() }()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", f.path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.path)
	}

	header := NewHeader(rows[0])
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, NewRecord(row))
	}
	return NewTable(TableNameFromFilePath(f.path), header, records), nil
}

func (f *File) parseParquet() (*Table, error) {
	// Parquet needs random access, so the file is read into memory first.
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.path)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	arrowTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer arrowTable.Release()

	schema := arrowTable.Schema()
	header := make(Header, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	tableReader := array.NewTableReader(arrowTable, 0)
	defer tableReader.Release()

	var records []Record
	for tableReader.Next() {
		batch := tableReader.Record()
		numRows := batch.NumRows()
		for i := int64(0); i < numRows; i++ {
			row := make(Record, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValueString(col, int(i))
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading parquet records: %w", err)
	}

	return NewTable(TableNameFromFilePath(f.path), header, records), nil
}

func (f *File) parseXLSX() (*Table, error) {
	xlsxFile, err := excelize.OpenFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer func() { _ = xlsxFile.Close() }()

	sheets := xlsxFile.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.path)
	}

	// Only the first sheet is loaded; one file maps to one table.
	rows, err := xlsxFile.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.path)
	}

	header := NewHeader(rows[0])
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// excelize trims trailing empty cells, so pad to the header width.
		record := make(Record, len(header))
		copy(record, row)
		records = append(records, record)
	}
	return NewTable(TableNameFromFilePath(f.path), header, records), nil
}

// arrowValueString renders one arrow array element as its string form.
// Null elements become the empty string.
func arrowValueString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch arr := col.(type) {
	case *array.String:
		return arr.Value(i)
	case *array.LargeString:
		return arr.Value(i)
	default:
		return col.ValueStr(i)
	}
}

func validateHeader(header Header) error {
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnName, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
