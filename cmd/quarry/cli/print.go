package cli

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// printRows writes a result set as tab-separated lines with a header row and
// returns the number of data rows printed.
func printRows(rows *sql.Rows) (int64, error) {
	columns, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	fmt.Println(strings.Join(columns, "\t"))

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	var count int64
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return count, err
		}
		cells := make([]string, len(values))
		for i, value := range values {
			cells[i] = renderValue(value)
		}
		fmt.Println(strings.Join(cells, "\t"))
		count++
	}
	return count, rows.Err()
}

// renderValue renders a scanned value for terminal output. NULL prints as
// an empty cell.
func renderValue(value any) string {
	switch v := value.(type) {
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
