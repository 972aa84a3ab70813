package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// readonlyOption marks a column the database fills itself (defaults,
// triggers). Such columns are scanned but never written by InsertModel.
const readonlyOption = "readonly"

type modelColumn struct {
	name     string
	value    any
	readonly bool
}

// InsertModel builds an INSERT from the exported `db`-tagged fields of model.
// A `db:"col,readonly"` field is left to the database.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	columns, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}

	cols := make([]string, 0, len(columns))
	vals := make([]any, 0, len(columns))
	for _, col := range columns {
		if col.readonly {
			continue
		}
		cols = append(cols, col.name)
		vals = append(vals, col.value)
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("model %T has no writable db columns", model)
	}

	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// ModelColumns lists every `db` column of model in field order, read-only
// ones included, for use as a SELECT list.
func ModelColumns(model any) ([]string, error) {
	columns, err := modelColumns(model)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(columns))
	for _, col := range columns {
		names = append(names, col.name)
	}
	return names, nil
}

func modelColumns(model any) ([]modelColumn, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	columns := make([]modelColumn, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, options, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		columns = append(columns, modelColumn{
			name:     name,
			value:    value.Field(i).Interface(),
			readonly: hasTagOption(options, readonlyOption),
		})
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("model %T has no db columns", model)
	}
	return columns, nil
}

func hasTagOption(options, want string) bool {
	for _, opt := range strings.Split(options, ",") {
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}
