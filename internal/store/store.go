package store

import (
	"context"
	"errors"
	"fmt"
)

// Table names exposed by the remote store.
const (
	TableCustomers  = "customers"
	TableProducts   = "products"
	TableQuantities = "quantities"
	TableOrders     = "orders"
)

// Record is an untyped row as returned by the store. Joined rows are nested
// under their alias as Record (or nil when the referenced row is gone).
type Record map[string]any

// ID returns the record's id as a string, or "" when absent.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	switch v := r["id"].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Join embeds the row of Table referenced by ForeignKey under As.
type Join struct {
	As         string
	Table      string
	ForeignKey string
}

type Query struct {
	Filters map[string]any
	Joins   []Join
	OrderBy string
	Desc    bool
}

// Store is the client of the remote table service.
type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	Insert(ctx context.Context, table string, values Record) (Record, error)
	Update(ctx context.Context, table, id string, values Record) (Record, error)
	Delete(ctx context.Context, table, id string) error
}

var (
	ErrNotFound        = errors.New("row not found")
	ErrConflict        = errors.New("constraint violation")
	ErrGeneratedColumn = errors.New("column is generated by the store")
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnavailable     = errors.New("store unavailable")
)

// Error is the structured error returned by every Store operation.
type Error struct {
	Op    string
	Table string
	Code  string
	Err   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store %s %s (%s): %v", e.Op, e.Table, e.Code, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, table, code string, err error) *Error {
	return &Error{Op: op, Table: table, Code: code, Err: err}
}
