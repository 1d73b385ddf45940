package table

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Project keeps the named attributes, in the order given. The key survives
// when every key attribute is kept; otherwise all projected attributes form
// the new key.
func (t *Table) Project(attrs ...string) (*Table, error) {
	t.ctx.Log.V(1).Info(fmt.Sprintf("RA> %s.project (%s)", t.Name, strings.Join(attrs, " ")))

	cols, err := t.Schema.Match(attrs)
	if err != nil {
		t.ctx.Log.Error(err, "project failed", "table", t.Name)
		return nil, err
	}

	key := attrs
	if containsAll(attrs, t.Schema.Key) {
		key = t.Schema.Key
	}
	schema, err := NewSchema(attrs, t.Schema.domainsAt(cols), key)
	if err != nil {
		t.ctx.Log.Error(err, "project failed", "table", t.Name)
		return nil, err
	}

	tuples := make([]Tuple, len(t.tuples))
	for i, tup := range t.tuples {
		tuples[i] = extract(tup, cols)
	}
	return t.derive(schema, tuples), nil
}

// extract copies the values at cols into a new tuple.
func extract(tup Tuple, cols []int) Tuple {
	out := make(Tuple, len(cols))
	for i, col := range cols {
		out[i] = tup[col]
	}
	return out
}

func containsAll(set, subset []string) bool {
	for _, s := range subset {
		if !slices.Contains(set, s) {
			return false
		}
	}
	return true
}
