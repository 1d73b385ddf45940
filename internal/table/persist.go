package table

import (
	"encoding/gob"
	"sync"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/snapshot"
	"github.com/tobsdb/reldb/internal/types"
)

// snapshotHeader is the first record of a table snapshot.
type snapshotHeader struct {
	Name       string
	Attributes []string
	Domains    []types.Domain
	Key        []string
	Tuples     int
	Indexed    bool
}

var gob_register_once sync.Once

// GobRegisterTypes registers the concrete value types a Tuple may hold.
func GobRegisterTypes() {
	gob_register_once.Do(func() {
		gob.Register(int(0))
		gob.Register(int64(0))
		gob.Register(int16(0))
		gob.Register(int8(0))
		gob.Register(float32(0.))
		gob.Register(float64(0.))
		gob.Register(string(""))
		gob.Register(types.Char(0))
	})
}

// Save writes t to its snapshot file in the context's store, replacing any
// previous snapshot of the same name.
func (t *Table) Save() error {
	GobRegisterTypes()
	id, err := t.ctx.Store.Write(t.Name, func(w *snapshot.Writer) error {
		header := snapshotHeader{
			Name:       t.Name,
			Attributes: t.Schema.Names(),
			Domains:    t.Schema.Domains(),
			Key:        t.Schema.Key,
			Tuples:     len(t.tuples),
			Indexed:    t.index != nil,
		}
		if err := w.Push(snapshot.TagHeader, header); err != nil {
			return err
		}
		for _, tup := range t.tuples {
			if err := w.Push(snapshot.TagTuple, []any(tup)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = errors.Wrapf(ErrPersistence, "save %s: %s", t.Name, err)
		t.ctx.Log.Error(err, "save failed", "table", t.Name)
		return err
	}
	t.ctx.Log.V(1).Info("saved table", "table", t.Name, "snapshot", id, "tuples", len(t.tuples))
	return nil
}

// Load reads the snapshot saved under name from ctx's store.
func Load(ctx *Context, name string) (*Table, error) {
	ctx = resolveContext(ctx)
	GobRegisterTypes()

	var t *Table
	err := ctx.Store.Read(name, func(r *snapshot.Reader) error {
		var header *snapshotHeader
		tuples := []Tuple{}
		for r.ReadNext() {
			switch r.Tag {
			case snapshot.TagHeader:
				if header != nil {
					return errors.New("duplicate header record")
				}
				header = &snapshotHeader{}
				if err := r.Decode(header); err != nil {
					return err
				}
			case snapshot.TagTuple:
				if header == nil {
					return errors.New("tuple record before header")
				}
				var tup []any
				if err := r.Decode(&tup); err != nil {
					return err
				}
				tuples = append(tuples, tup)
			default:
				ctx.Log.V(1).Info("skipping unknown snapshot record", "table", name, "tag", r.Tag)
			}
		}
		if err := r.Err(); err != nil {
			return err
		}
		if header == nil {
			return errors.New("missing header record")
		}
		if header.Name != name {
			return errors.Errorf("snapshot holds table %s", header.Name)
		}
		if len(tuples) != header.Tuples {
			return errors.Errorf("expected %d tuples, found %d", header.Tuples, len(tuples))
		}

		schema, err := NewSchema(header.Attributes, header.Domains, header.Key)
		if err != nil {
			return err
		}
		t = &Table{Name: header.Name, Schema: schema, tuples: tuples, ctx: ctx}
		for _, tup := range tuples {
			if err := t.typeCheck(tup); err != nil {
				return err
			}
		}
		if header.Indexed {
			return t.Reindex()
		}
		return nil
	})
	if err != nil {
		err = errors.Wrapf(ErrPersistence, "load %s: %s", name, err)
		ctx.Log.Error(err, "load failed", "table", name)
		return nil, err
	}
	return t, nil
}
