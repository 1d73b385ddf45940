package snapshot

import (
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultDir = "store"
	FileExt    = ".dbf"
)

var ErrInvalidName = errors.New("invalid snapshot name")

// CheckName rejects names that would place a snapshot outside the store
// directory.
func CheckName(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// Store is a directory of snapshot files, one per table.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{Dir: dir}
}

func (s *Store) Path(name string) string {
	return path.Join(s.Dir, name+FileExt)
}

func (s *Store) Exists(name string) bool {
	if CheckName(name) != nil {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Write creates the snapshot for name. The file is written next to its final
// location and renamed into place, so a failed write never clobbers an older
// snapshot.
func (s *Store) Write(name string, fn func(w *Writer) error) (uuid.UUID, error) {
	if err := CheckName(name); err != nil {
		return uuid.Nil, err
	}
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.Dir, 0755); err != nil {
			return uuid.Nil, err
		}
	}

	f, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return uuid.Nil, err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	id := uuid.New()
	w, err := NewWriter(f, id)
	if err == nil {
		err = fn(w)
	}
	if err == nil {
		err = w.Flush()
	}
	if close_err := f.Close(); err == nil {
		err = close_err
	}
	if err != nil {
		return uuid.Nil, err
	}

	if err := os.Rename(tmp, s.Path(name)); err != nil {
		return uuid.Nil, errors.Wrap(err, "moving snapshot into place")
	}
	return id, nil
}

func (s *Store) Read(name string, fn func(r *Reader) error) error {
	if err := CheckName(name); err != nil {
		return err
	}
	f, err := os.Open(s.Path(name))
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return err
	}
	return fn(r)
}

func (s *Store) Remove(name string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	return os.Remove(s.Path(name))
}

// List returns the names of all snapshots in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != FileExt {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(FileExt)])
	}
	return names, nil
}
