package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition renders one WHERE term with $n placeholders.
type Condition interface {
	render(w *writer)
}

// writer accumulates SQL text and positional args.
type writer struct {
	sql  strings.Builder
	args []any
}

func (w *writer) bind(v any) {
	w.args = append(w.args, v)
	w.sql.WriteString("$" + strconv.Itoa(len(w.args)))
}

// expand replaces each ? in expr with the next bound arg.
func (w *writer) expand(expr string, exprArgs []any) {
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(exprArgs) {
			w.bind(exprArgs[next])
			next++
			continue
		}
		w.sql.WriteByte(expr[i])
	}
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.sql.WriteString(" WHERE ")
		} else {
			w.sql.WriteString(" AND ")
		}
		c.render(w)
	}
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) render(w *writer) {
	w.sql.WriteString(c.column + " = ")
	w.bind(c.value)
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw condition using ? for args, e.g. Expr("recorded_at > ?", t).
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) render(w *writer) {
	w.expand(c.expr, c.args)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var w writer
	w.sql.WriteString("SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.sql.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.sql.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	return w.sql.String(), w.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values adds one row; call repeatedly for a batch insert.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix is appended verbatim, e.g. an ON CONFLICT clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("insert table is required")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert columns are required")
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert values are required")
	}

	var w writer
	w.sql.WriteString("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES ")
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.sql.WriteString("(")
		for j, v := range row {
			if j > 0 {
				w.sql.WriteString(", ")
			}
			w.bind(v)
		}
		w.sql.WriteString(")")
	}
	if b.suffix != "" {
		w.sql.WriteString(" " + b.suffix)
	}
	return w.sql.String(), w.args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses an unconditional delete.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete from %s requires a condition", b.table)
	}

	var w writer
	w.sql.WriteString("DELETE FROM " + b.table)
	w.where(b.where)
	return w.sql.String(), w.args, nil
}
