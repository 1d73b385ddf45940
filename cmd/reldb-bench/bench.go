package main

import (
	"fmt"
	"io"
	"math/rand"
	"text/tabwriter"
	"time"

	"github.com/tobsdb/reldb/internal/parser"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/pkg"
	"github.com/tobsdb/reldb/tools/generate"
	"golang.org/x/exp/slices"
)

type bench struct {
	schema *parser.Schema
	tables map[string]*table.Table
	rand   *rand.Rand
	repeat int
}

// newBench builds the tables of schema and fills them with generated tuples.
func newBench(ctx *table.Context, schema *parser.Schema, seed int64, counts map[string]int) (*bench, error) {
	tuples, err := generate.NewGenerator(schema, seed).Generate(counts)
	if err != nil {
		return nil, err
	}

	tables, err := schema.Build(ctx)
	if err != nil {
		return nil, err
	}
	for name, t := range tables {
		if err := t.InsertAll(tuples[name]...); err != nil {
			return nil, err
		}
		pkg.InfoLog("generated", t.Len(), "tuples for", name)
	}
	return &bench{schema, tables, rand.New(rand.NewSource(seed)), 1}, nil
}

// time reports the fastest of b.repeat runs of fn, and the size of its result.
func (b *bench) time(fn func() (*table.Table, error)) (time.Duration, int, error) {
	best := time.Duration(-1)
	size := 0
	for i := 0; i < max(b.repeat, 1); i++ {
		start := time.Now()
		res, err := fn()
		elapsed := time.Since(start)
		if err != nil {
			return 0, 0, err
		}
		if best < 0 || elapsed < best {
			best = elapsed
		}
		size = res.Len()
	}
	return best, size, nil
}

type result struct {
	op      string
	target  string
	elapsed time.Duration
	size    int
	err     error
}

// selects times SelectKey against NonIndexSelect for a key drawn from each table.
func (b *bench) selects() []result {
	results := []result{}
	for _, name := range b.schema.Tables.Sorted {
		t := b.tables[name]
		if t.Len() == 0 {
			continue
		}
		key := t.KeyOf(t.Tuples()[b.rand.Intn(t.Len())])
		target := fmt.Sprintf("%s %s", name, key)

		for _, op := range []struct {
			name string
			fn   func(table.KeyType) *table.Table
		}{
			{"selectKey", t.SelectKey},
			{"nonIndexSelect", t.NonIndexSelect},
		} {
			elapsed, size, err := b.time(func() (*table.Table, error) { return op.fn(key), nil })
			results = append(results, result{op.name, target, elapsed, size, err})
		}
	}
	return results
}

// joins times the join operators along every relation of the schema. The
// index join only runs when the relation targets the whole key of the
// referenced table.
func (b *bench) joins() []result {
	results := []result{}
	for _, name := range b.schema.Tables.Sorted {
		t := b.tables[name]
		for _, fk := range b.schema.Tables.Get(name).ForeignKeys() {
			ref := b.tables[fk.RefTable]
			target := fmt.Sprintf("%s -> %s", name, fk.RefTable)

			elapsed, size, err := b.time(func() (*table.Table, error) {
				return t.Join(fk.Fields, fk.RefFields, ref)
			})
			results = append(results, result{"join", target, elapsed, size, err})

			elapsed, size, err = b.time(func() (*table.Table, error) {
				return t.NonIndexJoin(fk.Fields, fk.RefFields, ref)
			})
			results = append(results, result{"nonIndexJoin", target, elapsed, size, err})

			if slices.Equal(fk.RefFields, ref.Schema.Key) {
				elapsed, size, err = b.time(func() (*table.Table, error) {
					return t.IndexJoin(fk.Fields, ref)
				})
				results = append(results, result{"indexJoin", target, elapsed, size, err})
			}
		}
	}
	return results
}

func (b *bench) run(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATOR\tTARGET\tTIME\tTUPLES")
	for _, r := range append(b.selects(), b.joins()...) {
		if r.err != nil {
			fmt.Fprintf(w, "%s\t%s\terror: %s\t\n", r.op, r.target, r.err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.op, r.target, r.elapsed, r.size)
	}
	w.Flush()
}
