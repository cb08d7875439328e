package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// Columns lists the db-tagged columns of a row model in field order.
func Columns(model any) ([]string, error) {
	cols, _, err := columnsAndValues(model)
	return cols, err
}

// Row returns the values of a row model's db-tagged fields in field order.
func Row(model any) ([]any, error) {
	_, vals, err := columnsAndValues(model)
	return vals, err
}

// InsertModels builds a batch insert from row models of one type.
func InsertModels[T any](table string, rows []T, suffix string) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no rows", table)
	}
	cols, err := Columns(rows[0])
	if err != nil {
		return "", nil, err
	}

	b := InsertInto(table).Columns(cols...).Suffix(suffix)
	for _, row := range rows {
		vals, err := Row(row)
		if err != nil {
			return "", nil, err
		}
		b.Values(vals...)
	}
	return b.ToSQL()
}

func columnsAndValues(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}
	return cols, vals, nil
}
