package table

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/types"
	"github.com/tobsdb/reldb/pkg"
	"golang.org/x/exp/slices"
)

type Attribute struct {
	Name   string
	Domain types.Domain
}

// Schema is immutable once built; tables derived from each other may share
// one.
type Schema struct {
	Attributes []Attribute
	Key        []string

	key_cols []int
}

func NewSchema(names []string, domains []types.Domain, key []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, errors.Wrap(ErrInvalidSchema, "no attributes")
	}
	if len(names) != len(domains) {
		return nil, errors.Wrapf(ErrInvalidSchema,
			"%d attributes but %d domains", len(names), len(domains))
	}
	if len(key) == 0 {
		return nil, errors.Wrap(ErrInvalidSchema, "empty key")
	}

	s := &Schema{
		Attributes: make([]Attribute, len(names)),
		Key:        slices.Clone(key),
	}
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if seen[name] {
			return nil, errors.Wrapf(ErrInvalidSchema, "duplicate attribute %s", name)
		}
		if !domains[i].IsValid() {
			return nil, errors.Wrapf(ErrInvalidSchema, "invalid domain %q for %s", domains[i], name)
		}
		seen[name] = true
		s.Attributes[i] = Attribute{name, domains[i]}
	}

	for i, k := range key {
		if slices.Contains(key[:i], k) {
			return nil, errors.Wrapf(ErrInvalidSchema, "duplicate key attribute %s", k)
		}
	}
	cols, err := s.Match(key)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSchema, err.Error())
	}
	s.key_cols = cols
	return s, nil
}

// ParseSchema builds a schema from whitespace separated lists, e.g.
//
//	ParseSchema("id name address status", "Integer String String String", "id")
func ParseSchema(attributes, domains, key string) (*Schema, error) {
	domain_list, err := types.ParseDomains(pkg.Fields(domains))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSchema, err.Error())
	}
	return NewSchema(pkg.Fields(attributes), domain_list, pkg.Fields(key))
}

func (s *Schema) Arity() int { return len(s.Attributes) }

func (s *Schema) Names() []string {
	names := make([]string, len(s.Attributes))
	for i, a := range s.Attributes {
		names[i] = a.Name
	}
	return names
}

func (s *Schema) Domains() []types.Domain {
	domains := make([]types.Domain, len(s.Attributes))
	for i, a := range s.Attributes {
		domains[i] = a.Domain
	}
	return domains
}

// Col returns the column position of name, or -1.
func (s *Schema) Col(name string) int {
	for i, a := range s.Attributes {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// Match resolves every name to its column position.
func (s *Schema) Match(names []string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		col := s.Col(name)
		if col < 0 {
			return nil, attributeNotFound(name)
		}
		cols[i] = col
	}
	return cols, nil
}

// KeyCols returns the key column positions in key declaration order.
func (s *Schema) KeyCols() []int { return slices.Clone(s.key_cols) }

func (s *Schema) domainsAt(cols []int) []types.Domain {
	domains := make([]types.Domain, len(cols))
	for i, col := range cols {
		domains[i] = s.Attributes[col].Domain
	}
	return domains
}

// Compatible checks that both schemas have the same arity and the same domain
// in every position.
func (s *Schema) Compatible(other *Schema) error {
	if s.Arity() != other.Arity() {
		return errors.Wrapf(ErrSchemaMismatch,
			"tables have different arity %d vs %d", s.Arity(), other.Arity())
	}
	for i, a := range s.Attributes {
		if a.Domain != other.Attributes[i].Domain {
			return errors.Wrapf(ErrSchemaMismatch,
				"tables disagree on domain %d (%s vs %s)", i, a.Domain, other.Attributes[i].Domain)
		}
	}
	return nil
}

func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, a := range s.Attributes {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %s", a.Name, a.Domain)
	}
	fmt.Fprintf(&sb, ") key(%s)", strings.Join(s.Key, " "))
	return sb.String()
}
