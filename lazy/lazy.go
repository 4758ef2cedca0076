// Package lazy provides deferred values and the relationship handles built
// on them.
//
// A Value is either resolved, holding its value, or unresolved, holding a
// thunk that computes the value on first access. The zero Value is resolved
// to the zero value of its type but unassigned: Assigned reports false until
// the value is set or deferred.
//
//	var items lazy.Many[LineItem]
//	items.Defer(func(ctx context.Context) ([]*LineItem, error) { ... })
//	list, err := items.Get(ctx) // runs the thunk once
package lazy

import (
	"context"
	"sync"
)

// Value is a value that may be computed on first access.
type Value[T any] struct {
	mu       sync.Mutex
	value    T
	thunk    func(context.Context) (T, error)
	assigned bool
}

// Of returns a resolved value.
func Of[T any](v T) *Value[T] {
	return &Value[T]{value: v, assigned: true}
}

// Deferred returns an unresolved value computed by fn.
func Deferred[T any](fn func(context.Context) (T, error)) *Value[T] {
	return &Value[T]{thunk: fn, assigned: true}
}

// Get resolves the value if needed and returns it. A failed resolution
// leaves the value unresolved, so a later Get retries.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.thunk != nil {
		value, err := v.thunk(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		v.value, v.thunk = value, nil
	}
	return v.value, nil
}

// Peek returns the value without resolving it. The boolean is false while
// the value is unresolved.
func (v *Value[T]) Peek() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.thunk != nil {
		var zero T
		return zero, false
	}
	return v.value, true
}

// Set resolves the value to x, discarding any pending thunk.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	v.value, v.thunk, v.assigned = x, nil, true
	v.mu.Unlock()
}

// Defer makes the value unresolved.
func (v *Value[T]) Defer(fn func(context.Context) (T, error)) {
	v.mu.Lock()
	var zero T
	v.value, v.thunk, v.assigned = zero, fn, true
	v.mu.Unlock()
}

// Resolved reports if the value is known.
func (v *Value[T]) Resolved() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.thunk == nil
}

// Assigned reports if the value was ever set or deferred.
func (v *Value[T]) Assigned() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.assigned
}
