package adapter

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/cascade/schema/field"
)

// Msgpack returns an adapter storing values of type T as msgpack-encoded
// blobs.
//
//	reg.Register("shop.Address", adapter.Msgpack[shop.Address]())
func Msgpack[T any]() *Adapter {
	return &Adapter{
		Storage: field.Blob,
		To: func(v any) (any, error) {
			return msgpack.Marshal(v)
		},
		From: func(v any) (any, error) {
			var data []byte
			switch x := v.(type) {
			case []byte:
				data = x
			case string:
				data = []byte(x)
			default:
				return nil, fmt.Errorf("unexpected %T for a msgpack blob", v)
			}
			var t T
			if err := msgpack.Unmarshal(data, &t); err != nil {
				return nil, err
			}
			return t, nil
		},
	}
}
