package table

import (
	"strings"

	"github.com/tobsdb/reldb/internal/types"
	"golang.org/x/exp/slices"
)

// KeyType is the composite value identifying a tuple: the values of the key
// attributes in key declaration order.
type KeyType struct {
	values []any
}

func NewKeyType(values ...any) KeyType {
	return KeyType{slices.Clone(values)}
}

func (k KeyType) Len() int { return len(k.values) }

func (k KeyType) Values() []any { return slices.Clone(k.values) }

func (k KeyType) Equal(other KeyType) bool {
	if len(k.values) != len(other.values) {
		return false
	}
	for i, v := range k.values {
		if !types.Equal(v, other.values[i]) {
			return false
		}
	}
	return true
}

// Compare orders keys lexicographically; a strict prefix sorts first.
func (k KeyType) Compare(other KeyType) int {
	for i := 0; i < len(k.values) && i < len(other.values); i++ {
		if c := types.Compare(k.values[i], other.values[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k.values) < len(other.values):
		return -1
	case len(k.values) > len(other.values):
		return 1
	}
	return 0
}

func (k KeyType) Less(other KeyType) bool { return k.Compare(other) < 0 }

// Hash is a canonical string form: equal keys share a hash.
func (k KeyType) Hash() string { return types.HashAll(k.values) }

func (k KeyType) String() string {
	parts := make([]string, len(k.values))
	for i, v := range k.values {
		parts[i] = types.Format(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func keyOf(tup Tuple, cols []int) KeyType {
	values := make([]any, len(cols))
	for i, col := range cols {
		values[i] = tup[col]
	}
	return KeyType{values}
}
