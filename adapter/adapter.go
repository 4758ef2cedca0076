// Package adapter converts field values between their Go representation and
// the storage classes of the database.
//
// Every field type name resolves to an Adapter. Built-in adapters cover the
// Go basic types, []byte, time.Time and uuid.UUID; applications register
// their own for custom types, or use Msgpack to store structured values.
// Nullable wrappers (*T, sql.NullString, sql.Null[T], ...) share the adapter
// of their underlying type.
package adapter

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/cascade/schema/field"
)

// Adapter maps one Go type onto a storage class.
type Adapter struct {
	Storage field.Storage
	// To converts a non-nil Go value into its storage value.
	To func(any) (any, error)
	// From converts a non-nil driver value into the Go value passed to
	// Entity.Set.
	From func(any) (any, error)
}

// MappingError is returned when a field type has no adapter or a value
// cannot be converted.
type MappingError struct {
	Type   string
	GoType string
	Field  string
	Err    error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	var at string
	if e.Type != "" {
		at = " " + e.Type + "." + e.Field
	}
	if e.Err != nil {
		return fmt.Sprintf("cascade: invalid mapping%s (%s): %v", at, e.GoType, e.Err)
	}
	return fmt.Sprintf("cascade: invalid mapping%s: no type adapter for %q", at, e.GoType)
}

// Unwrap returns the underlying conversion error.
func (e *MappingError) Unwrap() error { return e.Err }

// IsMappingError returns a boolean indicating whether the error is a mapping error.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingError
	return errors.As(err, &e)
}

// Registry resolves field type names to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*Adapter
}

// New returns a registry holding the built-in adapters.
func New() *Registry {
	r := &Registry{adapters: make(map[string]*Adapter, len(builtins))}
	for typ, a := range builtins {
		r.adapters[typ] = a
	}
	return r
}

// Register sets the adapter of goType, replacing any previous one.
func (r *Registry) Register(goType string, a *Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[field.Unwrap(goType)] = a
}

// Lookup returns the adapter of goType after unwrapping nullable wrappers.
func (r *Registry) Lookup(goType string) (*Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[field.Unwrap(goType)]
	if !ok {
		return nil, &MappingError{GoType: goType}
	}
	return a, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.adapters))
	for typ := range r.adapters {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := &Registry{adapters: make(map[string]*Adapter, len(r.adapters))}
	for typ, a := range r.adapters {
		c.adapters[typ] = a
	}
	return c
}

// ToStorage converts v, a value of goType, into its storage value and
// returns the storage class of the column. Nil values and invalid nullable
// wrappers convert to nil.
func (r *Registry) ToStorage(goType string, v any) (any, field.Storage, error) {
	a, err := r.Lookup(goType)
	if err != nil {
		return nil, field.StorageInvalid, err
	}
	v, err = deref(v)
	if err != nil {
		return nil, a.Storage, &MappingError{GoType: goType, Err: err}
	}
	if v == nil {
		return nil, a.Storage, nil
	}
	sv, err := a.To(v)
	if err != nil {
		return nil, a.Storage, &MappingError{GoType: goType, Err: err}
	}
	return sv, a.Storage, nil
}

// FromStorage converts a driver value into a value of goType. Nil stays nil.
func (r *Registry) FromStorage(goType string, v any) (any, error) {
	a, err := r.Lookup(goType)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	gv, err := a.From(v)
	if err != nil {
		return nil, &MappingError{GoType: goType, Err: err}
	}
	return gv, nil
}

// Storage returns the storage class of goType.
func (r *Registry) Storage(goType string) (field.Storage, error) {
	a, err := r.Lookup(goType)
	if err != nil {
		return field.StorageInvalid, err
	}
	return a.Storage, nil
}

// deref unwraps pointers to the built-in types and driver.Valuer wrappers
// such as sql.NullString.
func deref(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *bool:
		return ptr(x), nil
	case *int:
		return ptr(x), nil
	case *int8:
		return ptr(x), nil
	case *int16:
		return ptr(x), nil
	case *int32:
		return ptr(x), nil
	case *int64:
		return ptr(x), nil
	case *uint:
		return ptr(x), nil
	case *uint8:
		return ptr(x), nil
	case *uint16:
		return ptr(x), nil
	case *uint32:
		return ptr(x), nil
	case *uint64:
		return ptr(x), nil
	case *float32:
		return ptr(x), nil
	case *float64:
		return ptr(x), nil
	case *string:
		return ptr(x), nil
	case *[]byte:
		return ptr(x), nil
	case *time.Time:
		return ptr(x), nil
	case *uuid.UUID:
		return ptr(x), nil
	case uuid.UUID:
		return x, nil
	case uuid.NullUUID:
		if !x.Valid {
			return nil, nil
		}
		return x.UUID, nil
	case driver.Valuer:
		return x.Value()
	}
	return v, nil
}

func ptr[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
