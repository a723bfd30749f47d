package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore talks to the postgres schema created by internal/database.
// Rows travel as maps so the schema package owns all typing.
type PostgresStore struct {
	db     *gorm.DB
	tables map[string]TableRules
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	tables := make(map[string]TableRules)
	for _, t := range DefaultTables() {
		tables[t.Name] = t
	}
	return &PostgresStore{db: db, tables: tables}
}

func (s *PostgresStore) Select(ctx context.Context, table string, q Query) ([]Record, error) {
	if _, ok := s.tables[table]; !ok {
		return nil, newError("select", table, "", ErrUnknownTable)
	}

	dbq := s.db.WithContext(ctx).Table(table)
	for col, v := range q.Filters {
		if !identRe.MatchString(col) {
			return nil, newError("select", table, "", fmt.Errorf("invalid column %q", col))
		}
		dbq = dbq.Where(col+" = ?", v)
	}
	if q.OrderBy != "" {
		if !identRe.MatchString(q.OrderBy) {
			return nil, newError("select", table, "", fmt.Errorf("invalid order column %q", q.OrderBy))
		}
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		dbq = dbq.Order(q.OrderBy + " " + dir)
	}

	var rows []map[string]any
	if err := dbq.Find(&rows).Error; err != nil {
		return nil, translate("select", table, err)
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record(r))
	}

	for _, j := range q.Joins {
		if err := s.attach(ctx, out, j); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// attach loads the referenced rows of one join in a single query and nests
// them under j.As. A dangling foreign key yields a nil entry.
func (s *PostgresStore) attach(ctx context.Context, rows []Record, j Join) error {
	if _, ok := s.tables[j.Table]; !ok {
		return newError("select", j.Table, "", ErrUnknownTable)
	}

	ids := make([]string, 0, len(rows))
	seen := map[string]bool{}
	for _, r := range rows {
		id := cast.ToString(r[j.ForeignKey])
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	byID := map[string]Record{}
	if len(ids) > 0 {
		var refs []map[string]any
		err := s.db.WithContext(ctx).Table(j.Table).Where("id IN ?", ids).Find(&refs).Error
		if err != nil {
			return translate("select", j.Table, err)
		}
		for _, ref := range refs {
			rec := Record(ref)
			byID[rec.ID()] = rec
		}
	}

	for _, r := range rows {
		if ref, ok := byID[cast.ToString(r[j.ForeignKey])]; ok {
			r[j.As] = ref
		} else {
			r[j.As] = nil
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, values Record) (Record, error) {
	cols, args, err := s.columns("insert", table, values)
	if err != nil {
		return nil, err
	}

	var sql string
	if len(cols) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", table)
	} else {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *", table, strings.Join(cols, ", "), marks)
	}

	row := map[string]any{}
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&row).Error; err != nil {
		return nil, translate("insert", table, err)
	}
	return Record(row), nil
}

func (s *PostgresStore) Update(ctx context.Context, table, id string, values Record) (Record, error) {
	cols, args, err := s.columns("update", table, values)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		rows, err := s.Select(ctx, table, Query{Filters: map[string]any{"id": id}})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, newError("update", table, "", fmt.Errorf("%w: id %s", ErrNotFound, id))
		}
		return rows[0], nil
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? RETURNING *", table, strings.Join(sets, ", "))

	row := map[string]any{}
	res := s.db.WithContext(ctx).Raw(sql, append(args, id)...).Scan(&row)
	if res.Error != nil {
		return nil, translate("update", table, res.Error)
	}
	if len(row) == 0 {
		return nil, newError("update", table, "", fmt.Errorf("%w: id %s", ErrNotFound, id))
	}
	return Record(row), nil
}

func (s *PostgresStore) Delete(ctx context.Context, table, id string) error {
	if _, ok := s.tables[table]; !ok {
		return newError("delete", table, "", ErrUnknownTable)
	}
	res := s.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if res.Error != nil {
		return translate("delete", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return newError("delete", table, "", fmt.Errorf("%w: id %s", ErrNotFound, id))
	}
	return nil
}

// columns validates a write payload and returns its columns in a stable order.
func (s *PostgresStore) columns(op, table string, values Record) ([]string, []any, error) {
	rules, ok := s.tables[table]
	if !ok {
		return nil, nil, newError(op, table, "", ErrUnknownTable)
	}

	cols := make([]string, 0, len(values))
	for k := range values {
		if !identRe.MatchString(k) {
			return nil, nil, newError(op, table, "", fmt.Errorf("invalid column %q", k))
		}
		if rules.isGenerated(k) {
			return nil, nil, newError(op, table, "428C9", fmt.Errorf("%w: %s", ErrGeneratedColumn, k))
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = toSQLValue(values[c])
	}
	return cols, args, nil
}

func toSQLValue(v any) any {
	if list, ok := v.([]string); ok {
		return textArray(list)
	}
	return v
}

// textArray renders a text[] literal; pgx accepts it for text[] columns.
func textArray(list []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range list {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

func translate(op, table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23514", "23502":
			return newError(op, table, pgErr.Code, fmt.Errorf("%w: %s", ErrConflict, pgErr.Message))
		case "428C9":
			return newError(op, table, pgErr.Code, fmt.Errorf("%w: %s", ErrGeneratedColumn, pgErr.Message))
		case "22P02":
			// a malformed uuid names no row; on insert it is a bad reference
			if op == "insert" {
				return newError(op, table, pgErr.Code, fmt.Errorf("%w: %s", ErrConflict, pgErr.Message))
			}
			return newError(op, table, pgErr.Code, fmt.Errorf("%w: %s", ErrNotFound, pgErr.Message))
		}
		return newError(op, table, pgErr.Code, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(op, table, "", ErrNotFound)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(op, table, "", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	return newError(op, table, "", err)
}
