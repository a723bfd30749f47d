// Package form holds the state of one entity form: current values, defaults
// to reset to, and field-keyed validation errors.
package form

import (
	"sort"
	"strings"
	"sync"
)

// Errors maps a field's json name to the message shown next to it.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validator checks form values and returns nil or an empty map when valid.
type Validator[T any] func(T) Errors

type Form[T any] struct {
	mu       sync.RWMutex
	defaults T
	values   T
	errors   Errors
	validate Validator[T]
}

func New[T any](defaults T, validate Validator[T]) *Form[T] {
	return &Form[T]{defaults: defaults, values: defaults, validate: validate}
}

func (f *Form[T]) Values() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values
}

func (f *Form[T]) Errors() Errors {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.errors) == 0 {
		return nil
	}
	out := make(Errors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Set replaces all values. Errors are kept until the next Validate.
func (f *Form[T]) Set(v T) {
	f.mu.Lock()
	f.values = v
	f.mu.Unlock()
}

func (f *Form[T]) Update(fn func(*T)) {
	f.mu.Lock()
	fn(&f.values)
	f.mu.Unlock()
}

// Reset restores the defaults and clears errors.
func (f *Form[T]) Reset() {
	f.ResetTo(f.defaults)
}

// ResetTo seeds the form with v and clears errors.
func (f *Form[T]) ResetTo(v T) {
	f.mu.Lock()
	f.values = v
	f.errors = nil
	f.mu.Unlock()
}

// Validate runs the validator against the current values and stores the
// result. The returned error is nil when the form is valid.
func (f *Form[T]) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validate == nil {
		f.errors = nil
		return nil
	}
	errs := f.validate(f.values)
	if len(errs) == 0 {
		f.errors = nil
		return nil
	}
	f.errors = errs
	out := make(Errors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
