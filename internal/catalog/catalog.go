// Package catalog keeps the named tables a server works with.
//
// A Catalog is not safe for concurrent use on its own; callers hold its
// locker (see pkg.LockWrap) around every access.
package catalog

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/parser"
	"github.com/tobsdb/reldb/internal/snapshot"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/pkg"
)

var (
	ErrTableExists   = errors.New("table already exists")
	ErrTableNotFound = errors.New("table not found")
)

type Catalog struct {
	locker sync.RWMutex
	Ctx    *table.Context
	tables pkg.Map[string, *table.Table]
}

func New(ctx *table.Context) *Catalog {
	if ctx == nil {
		ctx = table.DefaultContext()
	}
	c := &Catalog{Ctx: ctx, tables: pkg.Map[string, *table.Table]{}}
	ctx.Taken = c.tables.Has
	return c
}

func (c *Catalog) GetLocker() *sync.RWMutex { return &c.locker }

func (c *Catalog) Create(name string, schema *table.Schema) (*table.Table, error) {
	if err := snapshot.CheckName(name); err != nil {
		return nil, err
	}
	if c.tables.Has(name) {
		return nil, errors.Wrapf(ErrTableExists, "%s", name)
	}
	t := table.New(c.Ctx, name, schema)
	c.tables.Set(name, t)
	return t, nil
}

// CreateFromSchema creates every table declared in a $TABLE schema. Nothing
// is created if any of the tables already exists.
func (c *Catalog) CreateFromSchema(schema_data string) ([]*table.Table, error) {
	schema, err := parser.ParseSchema(schema_data)
	if err != nil {
		return nil, err
	}
	for _, name := range schema.Tables.Sorted {
		if err := snapshot.CheckName(name); err != nil {
			return nil, err
		}
		if c.tables.Has(name) {
			return nil, errors.Wrapf(ErrTableExists, "%s", name)
		}
	}
	tables, err := schema.Build(c.Ctx)
	if err != nil {
		return nil, err
	}

	created := make([]*table.Table, 0, len(tables))
	for _, name := range schema.Tables.Sorted {
		c.tables.Set(name, tables[name])
		created = append(created, tables[name])
	}
	return created, nil
}

// Put registers t under its own name. Another table already holding the name
// is never replaced.
func (c *Catalog) Put(t *table.Table) error {
	if c.tables.Has(t.Name) && c.tables.Get(t.Name) != t {
		return errors.Wrapf(ErrTableExists, "%s", t.Name)
	}
	c.tables.Set(t.Name, t)
	return nil
}

func (c *Catalog) Get(name string) (*table.Table, error) {
	if !c.tables.Has(name) {
		return nil, errors.Wrapf(ErrTableNotFound, "%s", name)
	}
	return c.tables.Get(name), nil
}

func (c *Catalog) Drop(name string) error {
	if !c.tables.Has(name) {
		return errors.Wrapf(ErrTableNotFound, "%s", name)
	}
	c.tables.Delete(name)
	return nil
}

// List returns the table names in sorted order.
func (c *Catalog) List() []string {
	names := c.tables.Keys()
	sort.Strings(names)
	return names
}

func (c *Catalog) Save(name string) error {
	t, err := c.Get(name)
	if err != nil {
		return err
	}
	return t.Save()
}

// Load reads the snapshot of name and registers the table. A table already
// registered under name is not replaced; drop it first.
func (c *Catalog) Load(name string) (*table.Table, error) {
	if err := snapshot.CheckName(name); err != nil {
		return nil, err
	}
	if c.tables.Has(name) {
		return nil, errors.Wrapf(ErrTableExists, "%s", name)
	}
	t, err := table.Load(c.Ctx, name)
	if err != nil {
		return nil, err
	}
	c.tables.Set(t.Name, t)
	return t, nil
}

// SaveAll snapshots every table, continuing past failures. The first error
// is returned.
func (c *Catalog) SaveAll() error {
	var first error
	for _, name := range c.List() {
		if err := c.tables.Get(name).Save(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoadAll loads every snapshot in the context's store.
func (c *Catalog) LoadAll() error {
	names, err := c.Ctx.Store.List()
	if err != nil {
		return errors.Wrap(table.ErrPersistence, err.Error())
	}
	for _, name := range names {
		if _, err := c.Load(name); err != nil {
			return err
		}
	}
	return nil
}
