package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPascal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"id", "ID"},
		{"total", "Total"},
		{"order_id", "OrderID"},
		{"createdAt", "CreatedAt"},
		{"sku", "SKU"},
		{"line_items", "LineItems"},
		{"api_url", "APIURL"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, pascal(tt.in))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "line_item.go", fileName("LineItem"))
	assert.Equal(t, "order.go", fileName("Order"))
	assert.Equal(t, "o", receiver("Order"))
	assert.Equal(t, "e", receiver("Voucher"))
}

func TestParseType(t *testing.T) {
	c := &Config{Imports: map[string]string{"money": "example.com/money"}}
	tests := []struct {
		in    string
		kind  setKind
		valid string
		err   bool
	}{
		{in: "int64", kind: setPlain},
		{in: "[]byte", kind: setPlain},
		{in: "map[string]int", kind: setPlain},
		{in: "*string", kind: setPointer},
		{in: "sql.NullString", kind: setNull, valid: "String"},
		{in: "uuid.NullUUID", kind: setNull, valid: "UUID"},
		{in: "sql.Null[int64]", kind: setNull, valid: "V"},
		{in: "money.Amount", kind: setPlain},
		{in: "geo.Point", err: true},
		{in: "[4]int", err: true},
		{in: "func()", err: true},
		{in: "not a type", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := c.parseType(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.kind, got.kind)
				assert.Equal(t, tt.valid, got.valid)
			}
		})
	}
}
