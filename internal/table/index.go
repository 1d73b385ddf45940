package table

import (
	sorted "github.com/tobshub/go-sortedmap"
)

type indexEntry struct {
	Key   KeyType
	Tuple Tuple
}

func indexComparisonFunc(a, b indexEntry) bool {
	return a.Key.Less(b.Key)
}

// Index maps each KeyType to the single tuple owning it, kept in key order.
// Entries are addressed by the key's hash.
type Index struct {
	m *sorted.SortedMap[string, indexEntry]
}

func NewIndex() *Index {
	return &Index{sorted.New[string, indexEntry](0, indexComparisonFunc)}
}

// Put adds tup under key. It returns false, leaving the index untouched, if
// the key is already present.
func (ix *Index) Put(key KeyType, tup Tuple) bool {
	return ix.m.Insert(key.Hash(), indexEntry{key, tup})
}

func (ix *Index) Get(key KeyType) (Tuple, bool) {
	e, ok := ix.m.Get(key.Hash())
	if !ok {
		return nil, false
	}
	return e.Tuple, true
}

func (ix *Index) Has(key KeyType) bool {
	return ix.m.Has(key.Hash())
}

func (ix *Index) Len() int { return ix.m.Len() }

// Each visits the entries in ascending key order.
func (ix *Index) Each(fn func(key KeyType, tup Tuple)) {
	if ix.m.Len() == 0 {
		return
	}
	iterCh, err := ix.m.IterCh()
	if err != nil {
		return
	}
	for rec := range iterCh.Records() {
		fn(rec.Val.Key, rec.Val.Tuple)
	}
}
