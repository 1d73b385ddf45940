package table

import (
	"fmt"

	"github.com/tobsdb/reldb/internal/types"
)

// Union concatenates both tuple bags, t's tuples first. Duplicates are kept;
// see UnionDistinct for set semantics.
func (t *Table) Union(table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.union (%s)", t.Name, table2.Name))

	if err := t.Schema.Compatible(table2.Schema); err != nil {
		t.ctx.Log.Error(err, "union failed", "table", t.Name, "table2", table2.Name)
		return nil, err
	}

	tuples := make([]Tuple, 0, len(t.tuples)+len(table2.tuples))
	for _, tup := range t.tuples {
		tuples = append(tuples, tup.Clone())
	}
	for _, tup := range table2.tuples {
		tuples = append(tuples, tup.Clone())
	}
	return t.derive(t.Schema, tuples), nil
}

// UnionDistinct is Union with duplicate rows removed. The first occurrence
// of a row is kept.
func (t *Table) UnionDistinct(table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.unionDistinct (%s)", t.Name, table2.Name))

	if err := t.Schema.Compatible(table2.Schema); err != nil {
		t.ctx.Log.Error(err, "union failed", "table", t.Name, "table2", table2.Name)
		return nil, err
	}

	seen := map[string]bool{}
	tuples := []Tuple{}
	for _, src := range [][]Tuple{t.tuples, table2.tuples} {
		for _, tup := range src {
			h := types.HashAll(tup)
			if seen[h] {
				continue
			}
			seen[h] = true
			tuples = append(tuples, tup.Clone())
		}
	}
	return t.derive(t.Schema, tuples), nil
}

// Minus keeps the tuples of t whose full row does not occur in table2.
func (t *Table) Minus(table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.minus (%s)", t.Name, table2.Name))

	if err := t.Schema.Compatible(table2.Schema); err != nil {
		t.ctx.Log.Error(err, "minus failed", "table", t.Name, "table2", table2.Name)
		return nil, err
	}

	rows := make(map[string]struct{}, len(table2.tuples))
	for _, tup := range table2.tuples {
		rows[types.HashAll(tup)] = struct{}{}
	}

	tuples := []Tuple{}
	for _, tup := range t.tuples {
		if _, ok := rows[types.HashAll(tup)]; !ok {
			tuples = append(tuples, tup.Clone())
		}
	}
	return t.derive(t.Schema, tuples), nil
}
