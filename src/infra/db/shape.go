package db

import (
	"fmt"

	"webscaffold/src/core/domain"
)

// RowSource is anything that yields result rows: a *Result, Rows, or a
// single Row.
type RowSource interface {
	rowSet() Rows
}

func (r *Result) rowSet() Rows {
	if r == nil {
		return nil
	}
	return r.Rows
}

func (r Rows) rowSet() Rows { return r }

func (r Row) rowSet() Rows {
	if r == nil {
		return nil
	}
	return Rows{r}
}

// ToObject returns fresh copies of the rows of src. The input maps are never
// shared with the output, so callers may mutate either side freely.
// A single Row comes back as a one-element Rows; use Row.Clone to copy
// one record as a record.
func ToObject(src RowSource) Rows {
	if src == nil {
		return nil
	}
	in := src.rowSet()
	if in == nil {
		return nil
	}
	out := make(Rows, len(in))
	for i, row := range in {
		out[i] = row.Clone()
	}
	return out
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Single returns the only row of src, or nil when there is none.
// More than one row is an internal invariant violation.
func Single(src RowSource) (Row, error) {
	if src == nil {
		return nil, nil
	}
	rows := src.rowSet()
	if len(rows) > 1 {
		return nil, domain.NewInternalError(fmt.Sprintf("expected a single result but got %d results", len(rows)))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ToMap indexes rows by the value of their key column (default "id").
// Keys are stringified; on duplicates the later row wins.
//
//	ToMap("k", Rows{{"k": "a", "v": 1}, {"k": "b", "v": 2}})
//	=> {"a": {"k": "a", "v": 1}, "b": {"k": "b", "v": 2}}
func ToMap(key string, rows Rows) map[string]Row {
	if key == "" {
		key = "id"
	}
	out := make(map[string]Row, len(rows))
	for _, row := range rows {
		out[mapKey(row[key])] = row
	}
	return out
}

func mapKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case []byte:
		return string(k)
	default:
		return fmt.Sprint(k)
	}
}
