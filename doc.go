// Package quarry provides a client binding for quarry extract files:
// single-file columnar databases created from CSV, TSV, Parquet, and Excel
// (XLSX) inputs and queried through database/sql.
//
// An extract is a self-contained file stamped with a magic number and a
// format version. The package covers the full life cycle: building extracts
// from files, directories, or an fs.FS, reading and changing data with plain
// SQL, walking the schema catalog, exporting tables back to files, and
// defragmenting or converting extracts between format versions.
//
// # Features
//
//   - Build extracts from CSV, TSV, Parquet, and Excel (XLSX) files
//   - Automatic handling of compressed inputs (gzip, bzip2, xz, zstandard)
//   - Schema-qualified tables with typed, nullable columns
//   - Transactional bulk inserts through Inserter
//   - Export to CSV, TSV, Parquet, and XLSX, optionally compressed
//   - Row-count-verified copy for defragmentation and version conversion
//
// # Basic Usage
//
// Create an extract from a CSV file and query it:
//
//	validated, err := quarry.NewExtractBuilder("orders.quarry").
//	    AddPath("orders.csv").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	db, err := validated.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.QueryContext(ctx, `SELECT * FROM "orders" WHERE "quantity" > 2`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rows.Close()
//
// An existing extract opens directly:
//
//	db, err := quarry.Open("orders.quarry")
//
// Everything that touches extract bytes lives in the driver subpackage; this
// package only issues SQL.
package quarry
