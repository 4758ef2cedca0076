package field

import "strings"

// Storage is the storage class of a column.
type Storage uint8

// Storage classes understood by the SQL generator.
const (
	StorageInvalid Storage = iota
	Integer
	Real
	Text
	Blob
)

var storageNames = [...]string{
	StorageInvalid: "invalid",
	Integer:        "INTEGER",
	Real:           "REAL",
	Text:           "TEXT",
	Blob:           "BLOB",
}

// String returns the SQL name of the storage class.
func (s Storage) String() string {
	if int(s) < len(storageNames) {
		return storageNames[s]
	}
	return "invalid"
}

// Valid reports if s is a known storage class.
func (s Storage) Valid() bool { return s > StorageInvalid && int(s) < len(storageNames) }

// Quoted reports if literal values of this class are single-quoted in SQL.
func (s Storage) Quoted() bool { return s == Text }

// Go type names of the built-in field types.
const (
	TypeBool    = "bool"
	TypeInt     = "int"
	TypeInt8    = "int8"
	TypeInt16   = "int16"
	TypeInt32   = "int32"
	TypeInt64   = "int64"
	TypeUint    = "uint"
	TypeUint8   = "uint8"
	TypeUint16  = "uint16"
	TypeUint32  = "uint32"
	TypeUint64  = "uint64"
	TypeFloat32 = "float32"
	TypeFloat64 = "float64"
	TypeString  = "string"
	TypeBytes   = "[]byte"
	TypeTime    = "time.Time"
	TypeUUID    = "uuid.UUID"
)

// nullWrappers maps database/sql null wrappers to their primitive form.
var nullWrappers = map[string]string{
	"sql.NullBool":    TypeBool,
	"sql.NullByte":    TypeUint8,
	"sql.NullInt16":   TypeInt16,
	"sql.NullInt32":   TypeInt32,
	"sql.NullInt64":   TypeInt64,
	"sql.NullFloat64": TypeFloat64,
	"sql.NullString":  TypeString,
	"sql.NullTime":    TypeTime,
	"uuid.NullUUID":   TypeUUID,
}

// Unwrap strips nullable and boxed wrappers from a Go type name, so that
// "*int64", "sql.NullInt64" and "sql.Null[int64]" all resolve to "int64".
func Unwrap(typ string) string {
	typ = strings.TrimSpace(typ)
	for {
		switch {
		case strings.HasPrefix(typ, "*"):
			typ = strings.TrimPrefix(typ, "*")
		case strings.HasPrefix(typ, "sql.Null[") && strings.HasSuffix(typ, "]"):
			typ = typ[len("sql.Null[") : len(typ)-1]
		default:
			if prim, ok := nullWrappers[typ]; ok {
				return prim
			}
			return typ
		}
	}
}

// IsNullable reports if the Go type name is a nullable wrapper.
func IsNullable(typ string) bool {
	return Unwrap(typ) != strings.TrimSpace(typ)
}

// IsIntegral reports if the (unwrapped) Go type is an integer type.
func IsIntegral(typ string) bool {
	switch Unwrap(typ) {
	case TypeInt, TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint, TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return true
	}
	return false
}
