package clouddb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quarrydata/quarry/domain/model"
)

func TestNew_UnsupportedSource(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "oracle", "uri", "db")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestMapMySQLType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dataType string
		want     model.ColumnType
	}{
		{"int", model.ColumnTypeBigInt},
		{"BIGINT", model.ColumnTypeBigInt},
		{"tinyint", model.ColumnTypeBigInt},
		{"decimal", model.ColumnTypeDouble},
		{"double", model.ColumnTypeDouble},
		{"boolean", model.ColumnTypeBool},
		{"datetime", model.ColumnTypeTimestamp},
		{"timestamp", model.ColumnTypeTimestamp},
		{"date", model.ColumnTypeDate},
		{"varchar", model.ColumnTypeText},
		{"json", model.ColumnTypeText},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mapMySQLType(tt.dataType))
		})
	}
}

func TestMapPostgresType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dataType string
		want     model.ColumnType
	}{
		{"integer", model.ColumnTypeBigInt},
		{"bigint", model.ColumnTypeBigInt},
		{"numeric", model.ColumnTypeDouble},
		{"double precision", model.ColumnTypeDouble},
		{"boolean", model.ColumnTypeBool},
		{"timestamp without time zone", model.ColumnTypeTimestamp},
		{"timestamp with time zone", model.ColumnTypeTimestamp},
		{"date", model.ColumnTypeDate},
		{"text", model.ColumnTypeText},
		{"uuid", model.ColumnTypeText},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mapPostgresType(tt.dataType))
		})
	}
}

func TestFormatSourceValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"bytes", []byte("raw"), "raw"},
		{"int64", int64(42), "42"},
		{"float64", 3.5, "3.5"},
		{"bool", true, "true"},
		{"time", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), "2024-03-01T12:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatSourceValue(tt.value))
		})
	}
}
