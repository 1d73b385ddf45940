package table

import (
	"strconv"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/tobsdb/reldb/internal/snapshot"
	"github.com/tobsdb/reldb/pkg"
)

// Context is shared by a family of tables: it mints names for derived tables,
// carries the logger and knows where snapshots live.
type Context struct {
	counter atomic.Int64

	Log   logr.Logger
	Store *snapshot.Store
	// Taken reports names already in use; NextName skips them.
	Taken func(name string) bool
}

func NewContext(store *snapshot.Store, log logr.Logger) *Context {
	if store == nil {
		store = snapshot.NewStore(snapshot.DefaultDir)
	}
	return &Context{Log: log, Store: store}
}

// DefaultContext logs through pkg and stores snapshots under ./store.
func DefaultContext() *Context {
	return NewContext(nil, pkg.Logr().WithName("reldb"))
}

// NextName derives a unique table name from base.
func (ctx *Context) NextName(base string) string {
	for {
		n := ctx.counter.Add(1) - 1
		name := base + strconv.FormatInt(n, 10)
		if ctx.Taken == nil || !ctx.Taken(name) {
			return name
		}
	}
}
