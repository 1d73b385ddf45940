// Package table is an in-memory relational table engine: typed tuple
// storage, a composite key index and the relational algebra operators.
//
// Operators never mutate their inputs. Each returns a new, unindexed table
// named after its left input and holding its own copies of the tuples.
package table

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/types"
)

// Tuple is a positional row, one value per schema attribute.
type Tuple []any

func (t Tuple) Clone() Tuple {
	c := make(Tuple, len(t))
	copy(c, t)
	return c
}

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = types.Format(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type Table struct {
	Name   string
	Schema *Schema

	tuples []Tuple
	// nil until the table is populated through Insert or Reindex
	index *Index
	ctx   *Context
}

var default_context = sync.OnceValue(DefaultContext)

func resolveContext(ctx *Context) *Context {
	if ctx == nil {
		return default_context()
	}
	return ctx
}

// New creates an empty, indexed base table.
func New(ctx *Context, name string, schema *Schema) *Table {
	ctx = resolveContext(ctx)
	ctx.Log.V(1).Info(fmt.Sprintf("DDL> create table %s %s", name, schema))
	return &Table{Name: name, Schema: schema, index: NewIndex(), ctx: ctx}
}

// NewFromStrings creates an empty base table from whitespace separated
// attribute, domain and key lists.
func NewFromStrings(ctx *Context, name, attributes, domains, key string) (*Table, error) {
	schema, err := ParseSchema(attributes, domains, key)
	if err != nil {
		return nil, err
	}
	return New(ctx, name, schema), nil
}

// NewWithTuples creates a table around pre-built tuples. The tuples are
// copied but neither type checked nor indexed; call Reindex to build the
// index.
func NewWithTuples(ctx *Context, name string, schema *Schema, tuples []Tuple) *Table {
	t := &Table{Name: name, Schema: schema, ctx: resolveContext(ctx)}
	t.tuples = make([]Tuple, len(tuples))
	for i, tup := range tuples {
		t.tuples[i] = tup.Clone()
	}
	return t
}

// derive creates an unindexed result table named after t.
func (t *Table) derive(schema *Schema, tuples []Tuple) *Table {
	if tuples == nil {
		tuples = []Tuple{}
	}
	return &Table{Name: t.ctx.NextName(t.Name), Schema: schema, tuples: tuples, ctx: t.ctx}
}

func (t *Table) Context() *Context { return t.ctx }

func (t *Table) Len() int { return len(t.tuples) }

// Tuples returns copies of the stored tuples in insertion order.
func (t *Table) Tuples() []Tuple {
	tuples := make([]Tuple, len(t.tuples))
	for i, tup := range t.tuples {
		tuples[i] = tup.Clone()
	}
	return tuples
}

// Col returns the column position of attr, or -1.
func (t *Table) Col(attr string) int { return t.Schema.Col(attr) }

func (t *Table) Indexed() bool { return t.index != nil }

// KeyOf extracts the key of tup in key declaration order.
func (t *Table) KeyOf(tup Tuple) KeyType { return keyOf(tup, t.Schema.key_cols) }

// Reindex rebuilds the index from the stored tuples. It fails, leaving the
// table unindexed, if two tuples share a key.
func (t *Table) Reindex() error {
	index := NewIndex()
	for _, tup := range t.tuples {
		key := t.KeyOf(tup)
		if !index.Put(key, tup) {
			t.index = nil
			return errors.Wrapf(ErrDuplicateKey, "%s in %s", key, t.Name)
		}
	}
	t.index = index
	return nil
}

// typeCheck verifies arity and that each value suits its attribute's domain.
func (t *Table) typeCheck(tup Tuple) error {
	if len(tup) != t.Schema.Arity() {
		return errors.Wrapf(ErrTypeViolation,
			"%s expects %d values, got %d", t.Name, t.Schema.Arity(), len(tup))
	}
	for i, a := range t.Schema.Attributes {
		if !a.Domain.Accepts(tup[i]) {
			return errors.Wrapf(ErrTypeViolation,
				"%s.%s is %s, got %T (%v)", t.Name, a.Name, a.Domain, tup[i], tup[i])
		}
	}
	return nil
}

// Insert type checks tup and stores a copy of it. The table is left
// unchanged on failure, including when the key is already present.
func (t *Table) Insert(tup Tuple) error {
	t.ctx.Log.V(1).Info(fmt.Sprintf("DML> insert into %s values %s", t.Name, tup))

	if err := t.typeCheck(tup); err != nil {
		return err
	}
	if t.index == nil {
		if err := t.Reindex(); err != nil {
			return err
		}
	}

	stored := tup.Clone()
	key := t.KeyOf(stored)
	if !t.index.Put(key, stored) {
		return errors.Wrapf(ErrDuplicateKey, "%s in %s", key, t.Name)
	}
	t.tuples = append(t.tuples, stored)
	return nil
}

// InsertAll inserts tuples in order and stops at the first failure.
func (t *Table) InsertAll(tuples ...Tuple) error {
	for i, tup := range tuples {
		if err := t.Insert(tup); err != nil {
			return errors.Wrapf(err, "tuple %d", i)
		}
	}
	return nil
}

func (t *Table) String() string {
	return fmt.Sprintf("%s%s", t.Name, t.Schema)
}
