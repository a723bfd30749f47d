package models

import "encoding/json"

// Patch is a nullable column in an update payload. The zero value leaves the
// column untouched; a set Patch with a nil value clears it.
type Patch[T any] struct {
	set   bool
	value *T
}

func Set[T any](v T) Patch[T] {
	return Patch[T]{set: true, value: &v}
}

func Clear[T any]() Patch[T] {
	return Patch[T]{set: true}
}

// SetPtr sets the column to *v, or clears it when v is nil.
func SetPtr[T any](v *T) Patch[T] {
	if v == nil {
		return Clear[T]()
	}
	return Set(*v)
}

func (p Patch[T]) IsSet() bool { return p.set }

func (p Patch[T]) Value() *T { return p.value }

// UnmarshalJSON only runs for keys present in the body, which is what makes
// an absent key mean "keep".
func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	p.set = true
	if string(b) == "null" {
		p.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.value = &v
	return nil
}

func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.value)
}

func (p Patch[T]) put(rec map[string]any, col string) {
	if !p.set {
		return
	}
	if p.value == nil {
		rec[col] = nil
		return
	}
	rec[col] = *p.value
}

func put[T any](rec map[string]any, col string, v *T) {
	if v != nil {
		rec[col] = *v
	}
}
