// Package generate produces synthetic tuples for a parsed schema. Every
// generated tuple has a unique key within its table, and every relation
// field holds a value taken from an already generated tuple of the
// referenced table.
package generate

import (
	"fmt"
	"math/rand"

	"github.com/tobsdb/reldb/internal/parser"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/internal/types"
	"golang.org/x/exp/slices"
)

// attempts allowed per tuple before giving up on finding a fresh key
const MAX_KEY_ATTEMPTS = 1000

type Generator struct {
	schema *parser.Schema
	rand   *rand.Rand
}

// NewGenerator returns a generator whose output is fully determined by seed.
func NewGenerator(schema *parser.Schema, seed int64) *Generator {
	return &Generator{schema, rand.New(rand.NewSource(seed))}
}

// Generate creates counts[name] tuples for every table in the schema.
// Tables missing from counts get no tuples.
func (g *Generator) Generate(counts map[string]int) (map[string][]table.Tuple, error) {
	for name := range counts {
		if !g.schema.Tables.Has(name) {
			return nil, fmt.Errorf("Unknown table %s", name)
		}
	}

	order, err := g.schema.Order()
	if err != nil {
		return nil, err
	}

	res := make(map[string][]table.Tuple, len(order))
	for _, name := range order {
		tuples, err := g.generateTable(g.schema.Tables.Get(name), counts[name], res)
		if err != nil {
			return nil, err
		}
		res[name] = tuples
	}
	return res, nil
}

// reference binds the columns of a foreign key to the columns of the table
// it references.
type reference struct {
	table    string
	cols     []int
	ref_cols []int
}

func (g *Generator) references(t *parser.Table) []reference {
	refs := []reference{}
	for _, fk := range t.ForeignKeys() {
		ref_table := g.schema.Tables.Get(fk.RefTable)
		r := reference{table: fk.RefTable}
		for i, f := range fk.Fields {
			r.cols = append(r.cols, slices.Index(t.Fields.Sorted, f))
			r.ref_cols = append(r.ref_cols, slices.Index(ref_table.Fields.Sorted, fk.RefFields[i]))
		}
		refs = append(refs, r)
	}
	return refs
}

func (g *Generator) generateTable(t *parser.Table, n int, done map[string][]table.Tuple) ([]table.Tuple, error) {
	if n < 0 {
		return nil, fmt.Errorf("Invalid tuple count %d for %s", n, t.Name)
	}
	tuples := make([]table.Tuple, 0, n)
	if n == 0 {
		return tuples, nil
	}

	refs := g.references(t)
	for _, r := range refs {
		if len(done[r.table]) == 0 {
			return nil, fmt.Errorf("Table %s references %s, which has no tuples", t.Name, r.table)
		}
	}

	key_cols := make([]int, 0)
	for _, k := range t.Key() {
		key_cols = append(key_cols, slices.Index(t.Fields.Sorted, k))
	}

	seen := make(map[string]bool, n)
	for len(tuples) < n {
		var tup table.Tuple
		attempt := 0
		for ; attempt < MAX_KEY_ATTEMPTS; attempt++ {
			tup = g.generateTuple(t, refs, done)
			key := make([]any, len(key_cols))
			for i, col := range key_cols {
				key[i] = tup[col]
			}
			if h := types.HashAll(key); !seen[h] {
				seen[h] = true
				break
			}
		}
		if attempt == MAX_KEY_ATTEMPTS {
			return nil, fmt.Errorf("Could not generate a unique key for %s after %d tuples", t.Name, len(tuples))
		}
		tuples = append(tuples, tup)
	}
	return tuples, nil
}

func (g *Generator) generateTuple(t *parser.Table, refs []reference, done map[string][]table.Tuple) table.Tuple {
	tup := make(table.Tuple, t.Fields.Len())
	bound := make([]bool, len(tup))

	// all fields of one reference come from the same referenced tuple
	for _, r := range refs {
		ref_tuples := done[r.table]
		ref := ref_tuples[g.rand.Intn(len(ref_tuples))]
		for i, col := range r.cols {
			tup[col] = ref[r.ref_cols[i]]
			bound[col] = true
		}
	}

	for i, name := range t.Fields.Sorted {
		if !bound[i] {
			tup[i] = g.randomValue(name, t.Fields.Get(name).Domain)
		}
	}
	return tup
}

var grades = []types.Char{'A', 'B', 'C', 'D', 'F'}

func (g *Generator) randomValue(name string, d types.Domain) any {
	switch d {
	case types.DomainInteger:
		return g.rand.Intn(1_000_000)
	case types.DomainLong:
		return g.rand.Int63()
	case types.DomainShort:
		return int16(g.rand.Intn(1 << 15))
	case types.DomainByte:
		return int8(g.rand.Intn(1 << 7))
	case types.DomainFloat:
		return float32(g.rand.Intn(100_000)) / 100
	case types.DomainDouble:
		return float64(g.rand.Intn(10_000_000)) / 100
	case types.DomainCharacter:
		return grades[g.rand.Intn(len(grades))]
	}
	return fmt.Sprintf("%s%d", name, g.rand.Intn(1_000_000))
}
