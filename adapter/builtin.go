package adapter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/cascade/schema/field"
)

// TimeLayout is the text layout of time.Time columns. Values are stored in UTC.
const TimeLayout = time.RFC3339Nano

// timeLayouts are accepted when reading time.Time columns written by other
// tools.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var builtins = map[string]*Adapter{
	field.TypeBool: {
		Storage: field.Integer,
		To: func(v any) (any, error) {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("unexpected %T for bool", v)
			}
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		},
		From: func(v any) (any, error) {
			switch x := v.(type) {
			case bool:
				return x, nil
			case []byte:
				return strconv.ParseBool(string(x))
			case string:
				return strconv.ParseBool(x)
			}
			i, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			return i != 0, nil
		},
	},
	field.TypeInt:     integer(func(i int64) any { return int(i) }),
	field.TypeInt8:    integer(func(i int64) any { return int8(i) }),
	field.TypeInt16:   integer(func(i int64) any { return int16(i) }),
	field.TypeInt32:   integer(func(i int64) any { return int32(i) }),
	field.TypeInt64:   integer(func(i int64) any { return i }),
	field.TypeUint:    integer(func(i int64) any { return uint(i) }),
	field.TypeUint8:   integer(func(i int64) any { return uint8(i) }),
	field.TypeUint16:  integer(func(i int64) any { return uint16(i) }),
	field.TypeUint32:  integer(func(i int64) any { return uint32(i) }),
	field.TypeUint64:  integer(func(i int64) any { return uint64(i) }),
	field.TypeFloat32: float(func(f float64) any { return float32(f) }),
	field.TypeFloat64: float(func(f float64) any { return f }),
	field.TypeString: {
		Storage: field.Text,
		To: func(v any) (any, error) {
			if s, ok := v.(string); ok {
				return s, nil
			}
			return fmt.Sprint(v), nil
		},
		From: func(v any) (any, error) {
			switch x := v.(type) {
			case string:
				return x, nil
			case []byte:
				return string(x), nil
			}
			return fmt.Sprint(v), nil
		},
	},
	field.TypeBytes: {
		Storage: field.Blob,
		To: func(v any) (any, error) {
			switch x := v.(type) {
			case []byte:
				return x, nil
			case string:
				return []byte(x), nil
			}
			return nil, fmt.Errorf("unexpected %T for []byte", v)
		},
		From: func(v any) (any, error) {
			switch x := v.(type) {
			case []byte:
				return append([]byte(nil), x...), nil
			case string:
				return []byte(x), nil
			}
			return nil, fmt.Errorf("unexpected %T for []byte", v)
		},
	},
	field.TypeTime: {
		Storage: field.Text,
		To: func(v any) (any, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("unexpected %T for time.Time", v)
			}
			return t.UTC().Format(TimeLayout), nil
		},
		From: func(v any) (any, error) {
			switch x := v.(type) {
			case time.Time:
				return x.UTC(), nil
			case []byte:
				return parseTime(string(x))
			case string:
				return parseTime(x)
			}
			return nil, fmt.Errorf("unexpected %T for time.Time", v)
		},
	},
	field.TypeUUID: {
		Storage: field.Text,
		To: func(v any) (any, error) {
			switch x := v.(type) {
			case uuid.UUID:
				return x.String(), nil
			case string:
				u, err := uuid.Parse(x)
				if err != nil {
					return nil, err
				}
				return u.String(), nil
			}
			return nil, fmt.Errorf("unexpected %T for uuid.UUID", v)
		},
		From: func(v any) (any, error) {
			switch x := v.(type) {
			case uuid.UUID:
				return x, nil
			case string:
				return uuid.Parse(x)
			case []byte:
				if len(x) == 16 {
					return uuid.FromBytes(x)
				}
				return uuid.ParseBytes(x)
			}
			return nil, fmt.Errorf("unexpected %T for uuid.UUID", v)
		},
	},
}

func integer(conv func(int64) any) *Adapter {
	return &Adapter{
		Storage: field.Integer,
		To: func(v any) (any, error) {
			return toInt64(v)
		},
		From: func(v any) (any, error) {
			i, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			return conv(i), nil
		},
	}
}

func float(conv func(float64) any) *Adapter {
	return &Adapter{
		Storage: field.Real,
		To: func(v any) (any, error) {
			return toFloat64(v)
		},
		From: func(v any) (any, error) {
			f, err := toFloat64(v)
			if err != nil {
				return nil, err
			}
			return conv(f), nil
		},
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", x)
		}
		return int64(x), nil
	case float32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected %T for an integer", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected %T for a float", v)
	}
	return float64(i), nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}

// IsDefault reports if v is the default value of a primary key: nil, zero
// numbers, the empty string, empty bytes, the zero time or the nil UUID.
func IsDefault(v any) bool {
	v, err := deref(v)
	if err != nil || v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case time.Time:
		return x.IsZero()
	case uuid.UUID:
		return x == uuid.Nil
	case float32:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	}
	if i, err := toInt64(v); err == nil {
		return i == 0
	}
	return false
}
