// Package field describes the column-level vocabulary shared by the schema,
// adapter and SQL generation packages.
//
// A field is identified by its Go type name (as written in source), and every
// column is stored in one of four storage classes:
//
//	field.Integer  // bool, int*, uint*
//	field.Real     // float32, float64
//	field.Text     // string, time.Time, uuid.UUID
//	field.Blob     // []byte, msgpack-encoded values
//
// Nullable and boxed wrappers are unwrapped before type lookup:
//
//	field.Unwrap("*int64")            // "int64"
//	field.Unwrap("sql.NullString")    // "string"
//	field.Unwrap("sql.Null[float64]") // "float64"
package field
