package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"perfume-backoffice/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is one offending field of a record.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every offending field of a record.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// FieldMap returns field -> message, the shape the UI renders inline.
func (e *ValidationError) FieldMap() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Diagnostic describes a row dropped from a collection read.
type Diagnostic struct {
	Index int
	ID    string
	Err   error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("row %d (id=%q): %v", d.Index, d.ID, d.Err)
}

// ParseAll parses every row and drops the ones that fail, so one bad row
// never fails a whole read.
func ParseAll[T any](rows []store.Record, parse func(store.Record) (T, error)) ([]T, []Diagnostic) {
	out := make([]T, 0, len(rows))
	var diags []Diagnostic
	for i, r := range rows {
		v, err := parse(r)
		if err != nil {
			diags = append(diags, Diagnostic{Index: i, ID: r.ID(), Err: err})
			continue
		}
		out = append(out, v)
	}
	return out, diags
}

type entitySchema struct {
	name     string
	required []string
	defaults map[string]any
	// lenient skips struct-level required rules; presence is then only
	// checked for the keys in required.
	lenient bool
}

// relaxed is the schema used for joined sub-objects, which may carry only a
// subset of columns.
func (s entitySchema) relaxed() entitySchema {
	return entitySchema{name: s.name, required: []string{"id"}, defaults: s.defaults, lenient: true}
}

// decode turns r into out. nil and missing keys are both absent; absent keys
// get their default, absent required keys are reported.
func (s entitySchema) decode(r store.Record, out any) *ValidationError {
	verr := &ValidationError{Entity: s.name}

	in := make(map[string]any, len(r)+len(s.defaults))
	for k, v := range r {
		if !isNil(v) {
			in[k] = v
		}
	}
	for _, k := range s.required {
		if _, ok := in[k]; !ok {
			verr.Fields = append(verr.Fields, FieldError{Field: k, Rule: "required", Message: "is required"})
		}
	}
	for k, v := range s.defaults {
		if _, ok := in[k]; !ok {
			in[k] = cloneDefault(v)
		}
	}

	types := fieldTypes(reflect.TypeOf(out).Elem())
	for k, v := range in {
		t, ok := types[k]
		if !ok {
			delete(in, k)
			continue
		}
		cv, err := coerce(v, t)
		if err != nil {
			verr.Fields = append(verr.Fields, FieldError{Field: k, Rule: "type", Message: "has invalid type: " + err.Error()})
			delete(in, k)
			continue
		}
		in[k] = cv
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err == nil {
		err = dec.Decode(in)
	}
	if err != nil {
		verr.Fields = append(verr.Fields, FieldError{Field: "-", Rule: "decode", Message: err.Error()})
		return verr
	}

	if err := validate.Struct(out); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			for _, fe := range ves {
				field := fe.Field()
				if verr.Has(field) || (s.lenient && fe.Tag() == "required") {
					continue
				}
				verr.Fields = append(verr.Fields, FieldError{Field: field, Rule: fe.Tag(), Message: ruleMessage(fe)})
			}
		}
	}

	if len(verr.Fields) > 0 {
		sort.SliceStable(verr.Fields, func(i, j int) bool { return verr.Fields[i].Field < verr.Fields[j].Field })
		return verr
	}
	return nil
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email"
	case "min":
		return "must not be empty"
	case "numeric":
		return "must be a number"
	default:
		return "failed " + fe.Tag()
	}
}

var (
	typesMu    sync.Mutex
	typesCache = map[reflect.Type]map[string]reflect.Type{}
)

// fieldTypes maps mapstructure tag names to field types.
func fieldTypes(t reflect.Type) map[string]reflect.Type {
	typesMu.Lock()
	defer typesMu.Unlock()

	if m, ok := typesCache[t]; ok {
		return m
	}
	m := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		m[name] = f.Type
	}
	typesCache[t] = m
	return m
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	stringsType = reflect.TypeOf([]string(nil))
)

// coerce converts a wire value to the kind of t. Numeric columns often arrive
// as strings and arrays as postgres text literals.
func coerce(v any, t reflect.Type) (any, error) {
	if t.Kind() == reflect.Pointer {
		return coerce(v, t.Elem())
	}
	switch {
	case t == timeType:
		return cast.ToTimeE(v)
	case t == stringsType:
		return toStrings(v)
	}
	switch t.Kind() {
	case reflect.String:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		return cast.ToStringE(v)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(v)
	case reflect.Int, reflect.Int32, reflect.Int64:
		return cast.ToIntE(v)
	case reflect.Bool:
		return cast.ToBoolE(v)
	}
	return v, nil
}

var pgTypes = pgtype.NewMap()

func toStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, err := cast.ToStringE(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case []byte:
		return toStrings(string(x))
	case string:
		s := strings.TrimSpace(x)
		switch {
		case s == "":
			return []string{}, nil
		case strings.HasPrefix(s, "["):
			var out []string
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		case strings.HasPrefix(s, "{"):
			var out []string
			if err := pgTypes.Scan(pgtype.TextArrayOID, pgtype.TextFormatCode, []byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as a list of strings", v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func cloneDefault(v any) any {
	if s, ok := v.([]string); ok {
		return append([]string{}, s...)
	}
	return v
}

func asRecord(v any) (store.Record, bool) {
	switch x := v.(type) {
	case store.Record:
		return x, x != nil
	case map[string]any:
		return store.Record(x), x != nil
	}
	return nil, false
}
