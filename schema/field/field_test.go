package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/cascade/schema/field"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int64", "int64"},
		{"*int64", "int64"},
		{"**string", "string"},
		{"sql.NullString", "string"},
		{"*sql.NullInt64", "int64"},
		{"sql.Null[float64]", "float64"},
		{"sql.Null[*time.Time]", "time.Time"},
		{"uuid.NullUUID", "uuid.UUID"},
		{" uuid.UUID ", "uuid.UUID"},
		{"money.Amount", "money.Amount"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, field.Unwrap(tt.in))
		})
	}
}

func TestIsNullable(t *testing.T) {
	assert.True(t, field.IsNullable("*string"))
	assert.True(t, field.IsNullable("sql.NullTime"))
	assert.False(t, field.IsNullable("string"))
	assert.False(t, field.IsNullable("[]byte"))
}

func TestIsIntegral(t *testing.T) {
	for _, typ := range []string{"int", "*int32", "uint64", "sql.NullInt64"} {
		assert.True(t, field.IsIntegral(typ), typ)
	}
	for _, typ := range []string{"string", "float64", "uuid.UUID", "[]byte"} {
		assert.False(t, field.IsIntegral(typ), typ)
	}
}

func TestStorage(t *testing.T) {
	assert.Equal(t, "INTEGER", field.Integer.String())
	assert.Equal(t, "REAL", field.Real.String())
	assert.Equal(t, "TEXT", field.Text.String())
	assert.Equal(t, "BLOB", field.Blob.String())
	assert.Equal(t, "invalid", field.Storage(42).String())
	assert.True(t, field.Text.Quoted())
	assert.False(t, field.Blob.Quoted())
	assert.False(t, field.StorageInvalid.Valid())
	assert.True(t, field.Real.Valid())
}
