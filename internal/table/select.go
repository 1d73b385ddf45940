package table

import (
	"fmt"

	"github.com/tobsdb/reldb/internal/types"
)

// Select keeps the tuples satisfying pred. pred is handed a copy of each
// tuple.
func (t *Table) Select(pred func(Tuple) bool) *Table {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.select (predicate)", t.Name))

	tuples := []Tuple{}
	for _, tup := range t.tuples {
		c := tup.Clone()
		if pred(c) {
			tuples = append(tuples, tup.Clone())
		}
	}
	return t.derive(t.Schema, tuples)
}

// SelectKey looks key up in the index and returns a table holding zero or
// one tuple. Tables without an index are scanned instead.
func (t *Table) SelectKey(key KeyType) *Table {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.select (%s)", t.Name, key))

	if t.index == nil {
		t.ctx.Log.V(1).Info("no index, scanning", "table", t.Name)
		return t.scanKey(key)
	}

	tuples := []Tuple{}
	if tup, ok := t.index.Get(key); ok {
		tuples = append(tuples, tup.Clone())
	}
	return t.derive(t.Schema, tuples)
}

// NonIndexSelect finds the tuples whose key equals key by scanning every
// tuple.
func (t *Table) NonIndexSelect(key KeyType) *Table {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.nonIndexSelect (%s)", t.Name, key))
	return t.scanKey(key)
}

func (t *Table) scanKey(key KeyType) *Table {
	tuples := []Tuple{}
	for _, tup := range t.tuples {
		if t.KeyOf(tup).Equal(key) {
			tuples = append(tuples, tup.Clone())
		}
	}
	return t.derive(t.Schema, tuples)
}

// SelectWhere keeps the tuples whose attr equals value.
func (t *Table) SelectWhere(attr string, value any) (*Table, error) {
	col := t.Col(attr)
	if col < 0 {
		return nil, attributeNotFound(attr)
	}
	return t.Select(func(tup Tuple) bool {
		return types.Equal(tup[col], value)
	}), nil
}
