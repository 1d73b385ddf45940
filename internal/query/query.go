// Package query turns loosely typed request data into tuples, keys and
// predicates for a table, and tables back into plain data.
package query

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/internal/types"
	"github.com/tobsdb/reldb/pkg"
)

// QueryArg maps attribute names to raw request values.
type QueryArg = pkg.Map[string, any]

// CoerceTuple converts values positionally into the domains of schema.
func CoerceTuple(schema *table.Schema, values []any) (table.Tuple, error) {
	if len(values) != schema.Arity() {
		return nil, errors.Wrapf(table.ErrTypeViolation,
			"expected %d values, got %d", schema.Arity(), len(values))
	}
	tup := make(table.Tuple, len(values))
	for i, a := range schema.Attributes {
		v, err := types.Coerce(a.Domain, values[i])
		if err != nil {
			return nil, errors.Wrapf(table.ErrTypeViolation, "%s: %s", a.Name, err)
		}
		tup[i] = v
	}
	return tup, nil
}

// CoerceKey converts values into a key of schema, in key declaration order.
func CoerceKey(schema *table.Schema, values []any) (table.KeyType, error) {
	key_cols := schema.KeyCols()
	if len(values) != len(key_cols) {
		return table.KeyType{}, NewQueryError(http.StatusBadRequest,
			fmt.Sprintf("Key has %d attributes, got %d values", len(key_cols), len(values)))
	}
	key := make([]any, len(values))
	for i, col := range key_cols {
		a := schema.Attributes[col]
		v, err := types.Coerce(a.Domain, values[i])
		if err != nil {
			return table.KeyType{}, NewQueryError(http.StatusBadRequest, fmt.Sprintf("%s: %s", a.Name, err))
		}
		key[i] = v
	}
	return table.NewKeyType(key...), nil
}

// Where builds a predicate matching tuples whose attributes equal every
// constraint in where. An empty where matches everything.
func Where(schema *table.Schema, where QueryArg) (func(table.Tuple) bool, error) {
	cols := []int{}
	values := []any{}
	for _, name := range where.Keys() {
		col := schema.Col(name)
		if col < 0 {
			return nil, errors.Wrapf(table.ErrAttributeNotFound, "%s", name)
		}
		v, err := types.Coerce(schema.Attributes[col].Domain, where.Get(name))
		if err != nil {
			return nil, NewQueryError(http.StatusBadRequest, fmt.Sprintf("%s: %s", name, err))
		}
		cols = append(cols, col)
		values = append(values, v)
	}

	return func(tup table.Tuple) bool {
		for i, col := range cols {
			if !types.Equal(tup[col], values[i]) {
				return false
			}
		}
		return true
	}, nil
}

// TableView is the plain data form of a table sent to clients.
type TableView struct {
	Name       string         `json:"name"`
	Attributes []string       `json:"attributes"`
	Domains    []types.Domain `json:"domains"`
	Key        []string       `json:"key"`
	Indexed    bool           `json:"indexed"`
	Tuples     [][]any        `json:"tuples"`
}

func View(t *table.Table) TableView {
	tuples := make([][]any, t.Len())
	for i, tup := range t.Tuples() {
		tuples[i] = tup
	}
	return TableView{
		Name:       t.Name,
		Attributes: t.Schema.Names(),
		Domains:    t.Schema.Domains(),
		Key:        t.Schema.Key,
		Indexed:    t.Indexed(),
		Tuples:     tuples,
	}
}

// Describe is View without the tuples.
func Describe(t *table.Table) TableView {
	v := View(t)
	v.Tuples = nil
	return v
}
