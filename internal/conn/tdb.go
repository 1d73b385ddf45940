// Package conn serves a catalog of relational tables over websockets.
package conn

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tobsdb/reldb/internal/auth"
	"github.com/tobsdb/reldb/internal/catalog"
	"github.com/tobsdb/reldb/internal/snapshot"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/pkg"
)

type WriteSettings struct {
	write_path     string
	in_mem         bool
	write_ticker   *time.Ticker
	write_interval time.Duration
}

func NewWriteSettings(write_path string, in_mem bool, write_interval_ms int) *WriteSettings {
	var write_ticker *time.Ticker
	write_interval := time.Duration(write_interval_ms) * time.Millisecond
	if !in_mem {
		if len(write_path) == 0 {
			pkg.FatalLog("Must either provide store path or use in-memory mode")
		}
		write_ticker = time.NewTicker(write_interval)
	}
	return &WriteSettings{write_path, in_mem, write_ticker, write_interval}
}

// LogOptions sets the level of the pkg loggers. The zero value logs nothing.
type LogOptions struct {
	Level pkg.LogLevel
}

type RelDB struct {
	Locker  sync.RWMutex
	Catalog *catalog.Catalog
	Users   auth.Users

	write_settings *WriteSettings
	last_change    time.Time
}

func NewRelDB(users auth.Users, write_settings *WriteSettings, log_options LogOptions) (*RelDB, error) {
	pkg.SetLogLevel(log_options.Level)
	table.GobRegisterTypes()

	dir := write_settings.write_path
	if dir == "" {
		dir = snapshot.DefaultDir
	}
	ctx := table.NewContext(snapshot.NewStore(dir), pkg.Logr().WithName("reldb"))
	c := catalog.New(ctx)

	if !write_settings.in_mem {
		if err := c.LoadAll(); err != nil {
			return nil, err
		}
		pkg.InfoLog("loaded", len(c.List()), "tables from", dir)
	}

	return &RelDB{
		Catalog:        c,
		Users:          users,
		write_settings: write_settings,
		last_change:    time.Now(),
	}, nil
}

func (db *RelDB) GetLocker() *sync.RWMutex { return &db.Locker }

func (db *RelDB) markChanged() {
	pkg.LockWrap(db, func() { db.last_change = time.Now() })
}

func (db *RelDB) lastChange() (t time.Time) {
	pkg.RLockWrap(db, func() { t = db.last_change })
	return
}

func (db *RelDB) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", db.HandleConnection)
	return mux
}

func (db *RelDB) Listen(port int) {
	exit := make(chan os.Signal, 2)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	s := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: db.Handler(),
	}

	go func() {
		err := s.ListenAndServe()
		if err != http.ErrServerClosed {
			pkg.FatalLog(err)
		}
	}()

	go func() {
		if db.write_settings.write_ticker == nil {
			return
		}

		last_write := db.lastChange()

		for {
			<-db.write_settings.write_ticker.C
			if change := db.lastChange(); change.After(last_write) {
				db.WriteToFile()
				last_write = change
			}
		}
	}()

	pkg.InfoLog("RelDB listening on port", port)
	<-exit
	pkg.DebugLog("Shutting down...")
	s.Shutdown(context.Background())
	db.WriteToFile()
}

// WriteToFile snapshots every table in the catalog.
func (db *RelDB) WriteToFile() {
	if db.write_settings.in_mem {
		return
	}

	pkg.DebugLog("writing tables to disk")

	var err error
	pkg.RLockWrap(db.Catalog, func() { err = db.Catalog.SaveAll() })
	if err != nil {
		pkg.ErrorLog("writing tables:", err)
	}
}
