package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Datetime patterns recognized during type inference.
var datetimePatterns = []struct {
	pattern *regexp.Regexp
	formats []string
	isDate  bool
}{
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
		false,
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000"},
		false,
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"},
		false,
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
		true,
	},
}

func isTimestamp(value string) bool {
	matched, isDate := matchDatetime(value)
	return matched && !isDate
}

func isDate(value string) bool {
	matched, isDate := matchDatetime(value)
	return matched && isDate
}

func matchDatetime(value string) (matched, isDate bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, false
	}
	for _, dp := range datetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		for _, format := range dp.formats {
			if _, err := time.Parse(format, value); err == nil {
				return true, dp.isDate
			}
		}
	}
	return false, false
}

func isInteger(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

func isFloat(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func isBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "false":
		return true
	}
	return false
}

// inferColumnType infers the type of a single column from its values.
// Empty values are ignored; a column whose values are all empty is TEXT.
func inferColumnType(values []string) ColumnType {
	hasValue := false
	allInt := true
	allFloat := true
	allBool := true
	allTimestamp := true
	allDate := true

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		hasValue = true
		if allInt && !isInteger(v) {
			allInt = false
		}
		if allFloat && !isFloat(v) {
			allFloat = false
		}
		if allBool && !isBool(v) {
			allBool = false
		}
		if allTimestamp && !isTimestamp(v) {
			allTimestamp = false
		}
		if allDate && !isDate(v) {
			allDate = false
		}
	}

	switch {
	case !hasValue:
		return ColumnTypeText
	case allBool:
		return ColumnTypeBool
	case allInt:
		return ColumnTypeBigInt
	case allFloat:
		return ColumnTypeDouble
	case allDate:
		return ColumnTypeDate
	case allTimestamp:
		return ColumnTypeTimestamp
	default:
		return ColumnTypeText
	}
}

// InferColumns infers a typed column list from a header and records.
// A column that contains an empty value is considered nullable.
func InferColumns(header Header, records []Record) []Column {
	columns := make([]Column, len(header))
	for i, name := range header {
		values := make([]string, 0, len(records))
		nullable := false
		for _, record := range records {
			if i >= len(record) {
				continue
			}
			if strings.TrimSpace(record[i]) == "" {
				nullable = true
				continue
			}
			values = append(values, record[i])
		}
		columns[i] = Column{
			Name:     name,
			Type:     inferColumnType(values),
			Nullable: nullable,
		}
	}
	return columns
}
