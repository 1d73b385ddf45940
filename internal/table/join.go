package table

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/types"
	"golang.org/x/exp/slices"
)

// disambiguate appends "2" to name until it no longer collides with taken.
func disambiguate(name string, taken []string) string {
	for slices.Contains(taken, name) {
		name += "2"
	}
	return name
}

// joinSchema concatenates left with the attributes of right whose column is
// not dropped, renaming right attributes that collide. The key is left's key
// followed by whatever remains of right's key.
func joinSchema(left, right *Schema, drop []int) (*Schema, error) {
	names := left.Names()
	domains := left.Domains()
	key := slices.Clone(left.Key)

	renamed := map[string]string{}
	for i, a := range right.Attributes {
		if slices.Contains(drop, i) {
			continue
		}
		name := disambiguate(a.Name, names)
		renamed[a.Name] = name
		names = append(names, name)
		domains = append(domains, a.Domain)
	}
	for _, k := range right.Key {
		if name, ok := renamed[k]; ok {
			key = append(key, name)
		}
	}
	return NewSchema(names, domains, key)
}

// joinCols resolves both attribute lists for an equi-join.
func (t *Table) joinCols(attrs1, attrs2 []string, table2 *Table) (cols1, cols2 []int, err error) {
	if len(attrs1) != len(attrs2) {
		return nil, nil, errors.Wrapf(ErrMalformedJoin,
			"%d attributes joined with %d", len(attrs1), len(attrs2))
	}
	if len(attrs1) == 0 {
		return nil, nil, errors.Wrap(ErrMalformedJoin, "no join attributes")
	}
	if cols1, err = t.Schema.Match(attrs1); err != nil {
		return nil, nil, err
	}
	if cols2, err = table2.Schema.Match(attrs2); err != nil {
		return nil, nil, err
	}
	return cols1, cols2, nil
}

func valuesEqual(a Tuple, cols_a []int, b Tuple, cols_b []int) bool {
	for i, col := range cols_a {
		if !types.Equal(a[col], b[cols_b[i]]) {
			return false
		}
	}
	return true
}

// concat joins left with the kept columns of right into a new tuple.
func concat(left, right Tuple, drop []int) Tuple {
	out := make(Tuple, len(left), len(left)+len(right)-len(drop))
	copy(out, left)
	for i, v := range right {
		if !slices.Contains(drop, i) {
			out = append(out, v)
		}
	}
	return out
}

func hashCols(tup Tuple, cols []int) string {
	var sb strings.Builder
	for _, col := range cols {
		types.Hash(&sb, tup[col])
	}
	return sb.String()
}

func (t *Table) joinFailed(err error, op string, table2 *Table) (*Table, error) {
	t.ctx.Log.Error(err, op+" failed", "table", t.Name, "table2", table2.Name)
	return nil, err
}

// Join is an equi-join matching attrs1 of t against attrs2 of table2 by
// value. Output tuples are ordered by left tuple, then by right tuple.
// table2's attributes are renamed where they collide with t's.
func (t *Table) Join(attrs1, attrs2 []string, table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.join (%s, %s, %s)", t.Name,
		strings.Join(attrs1, " "), strings.Join(attrs2, " "), table2.Name))

	cols1, cols2, err := t.joinCols(attrs1, attrs2, table2)
	if err != nil {
		return t.joinFailed(err, "join", table2)
	}
	schema, err := joinSchema(t.Schema, table2.Schema, nil)
	if err != nil {
		return t.joinFailed(err, "join", table2)
	}

	buckets := map[string][]Tuple{}
	for _, tup := range table2.tuples {
		h := hashCols(tup, cols2)
		buckets[h] = append(buckets[h], tup)
	}

	tuples := []Tuple{}
	for _, left := range t.tuples {
		for _, right := range buckets[hashCols(left, cols1)] {
			tuples = append(tuples, concat(left, right, nil))
		}
	}
	return t.derive(schema, tuples), nil
}

// NonIndexJoin produces the same result as Join with nested loops over both
// tables.
func (t *Table) NonIndexJoin(attrs1, attrs2 []string, table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.nonIndexJoin (%s, %s, %s)", t.Name,
		strings.Join(attrs1, " "), strings.Join(attrs2, " "), table2.Name))

	cols1, cols2, err := t.joinCols(attrs1, attrs2, table2)
	if err != nil {
		return t.joinFailed(err, "nonIndexJoin", table2)
	}
	schema, err := joinSchema(t.Schema, table2.Schema, nil)
	if err != nil {
		return t.joinFailed(err, "nonIndexJoin", table2)
	}

	tuples := []Tuple{}
	for _, left := range t.tuples {
		for _, right := range table2.tuples {
			if valuesEqual(left, cols1, right, cols2) {
				tuples = append(tuples, concat(left, right, nil))
			}
		}
	}
	return t.derive(schema, tuples), nil
}

// IndexJoin joins attrs1 of t against the key of table2, probing table2's
// index once per left tuple. The result equals
// Join(attrs1, table2.Schema.Key, table2).
func (t *Table) IndexJoin(attrs1 []string, table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.indexJoin (%s, %s)", t.Name,
		strings.Join(attrs1, " "), table2.Name))

	if table2.index == nil {
		return t.joinFailed(errors.Wrapf(ErrMalformedJoin, "%s has no index", table2.Name),
			"indexJoin", table2)
	}
	cols1, _, err := t.joinCols(attrs1, table2.Schema.Key, table2)
	if err != nil {
		return t.joinFailed(err, "indexJoin", table2)
	}
	schema, err := joinSchema(t.Schema, table2.Schema, nil)
	if err != nil {
		return t.joinFailed(err, "indexJoin", table2)
	}

	tuples := []Tuple{}
	for _, left := range t.tuples {
		if right, ok := table2.index.Get(keyOf(left, cols1)); ok {
			tuples = append(tuples, concat(left, right, nil))
		}
	}
	return t.derive(schema, tuples), nil
}

// sharedCols pairs up the attributes t and table2 have in common.
func (t *Table) sharedCols(table2 *Table) (cols1, cols2 []int) {
	for i, a := range t.Schema.Attributes {
		if j := table2.Col(a.Name); j >= 0 {
			cols1 = append(cols1, i)
			cols2 = append(cols2, j)
		}
	}
	return cols1, cols2
}

// NaturalJoin equi-joins on every attribute name the tables share and emits
// one tuple per matching pair. table2's copies of the shared columns are left
// out. Without shared attributes the result is the cartesian product.
func (t *Table) NaturalJoin(table2 *Table) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.join (%s)", t.Name, table2.Name))

	cols1, cols2 := t.sharedCols(table2)
	schema, err := joinSchema(t.Schema, table2.Schema, cols2)
	if err != nil {
		return t.joinFailed(err, "join", table2)
	}

	buckets := map[string][]Tuple{}
	for _, tup := range table2.tuples {
		h := hashCols(tup, cols2)
		buckets[h] = append(buckets[h], tup)
	}

	tuples := []Tuple{}
	for _, left := range t.tuples {
		for _, right := range buckets[hashCols(left, cols1)] {
			tuples = append(tuples, concat(left, right, cols2))
		}
	}
	return t.derive(schema, tuples), nil
}

// SemiJoin keeps each tuple of t that matches at least one tuple of table2
// on all shared attribute names. The result has t's schema.
func (t *Table) SemiJoin(table2 *Table) *Table {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.semiJoin (%s)", t.Name, table2.Name))

	cols1, cols2 := t.sharedCols(table2)
	rows := make(map[string]struct{}, len(table2.tuples))
	for _, tup := range table2.tuples {
		rows[hashCols(tup, cols2)] = struct{}{}
	}

	tuples := []Tuple{}
	for _, left := range t.tuples {
		if _, ok := rows[hashCols(left, cols1)]; ok {
			tuples = append(tuples, left.Clone())
		}
	}
	return t.derive(t.Schema, tuples)
}
