package types

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Domain is the declared scalar type of an attribute.
type Domain string

const (
	DomainInteger   Domain = "Integer"
	DomainLong      Domain = "Long"
	DomainShort     Domain = "Short"
	DomainByte      Domain = "Byte"
	DomainFloat     Domain = "Float"
	DomainDouble    Domain = "Double"
	DomainString    Domain = "String"
	DomainCharacter Domain = "Character"
)

var VALID_DOMAINS = []Domain{
	DomainInteger, DomainLong, DomainShort, DomainByte,
	DomainFloat, DomainDouble, DomainString, DomainCharacter,
}

var domain_aliases = map[string]Domain{
	"Int":  DomainInteger,
	"Char": DomainCharacter,
}

func (d Domain) IsValid() bool {
	return slices.Contains(VALID_DOMAINS, d)
}

func (d Domain) IsReal() bool {
	return d == DomainFloat || d == DomainDouble
}

func ParseDomain(name string) (Domain, error) {
	if alias, ok := domain_aliases[name]; ok {
		return alias, nil
	}
	d := Domain(name)
	if !d.IsValid() {
		return "", fmt.Errorf("Invalid domain: %s", name)
	}
	return d, nil
}

func ParseDomains(names []string) ([]Domain, error) {
	domains := make([]Domain, len(names))
	for i, name := range names {
		d, err := ParseDomain(name)
		if err != nil {
			return nil, err
		}
		domains[i] = d
	}
	return domains, nil
}

// Char is the Go representation of a Character value.
// It is distinct from rune so that it never satisfies an Integer column.
type Char rune

func (c Char) String() string { return string(rune(c)) }

func (c Char) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Char) UnmarshalText(text []byte) error {
	r := []rune(string(text))
	if len(r) != 1 {
		return fmt.Errorf("Invalid Character value: %q", text)
	}
	*c = Char(r[0])
	return nil
}

// Kind reports the domain a Go value naturally belongs to.
// ok is false for values outside the supported scalar set.
func Kind(v any) (d Domain, ok bool) {
	switch v.(type) {
	case int:
		return DomainInteger, true
	case int64:
		return DomainLong, true
	case int16:
		return DomainShort, true
	case int8:
		return DomainByte, true
	case float32:
		return DomainFloat, true
	case float64:
		return DomainDouble, true
	case string:
		return DomainString, true
	case Char:
		return DomainCharacter, true
	}
	return "", false
}

// Accepts reports whether v may be stored in an attribute of domain d.
// Real-valued domains accept either float representation.
func (d Domain) Accepts(v any) bool {
	kind, ok := Kind(v)
	if !ok {
		return false
	}
	if kind == d {
		return true
	}
	return d.IsReal() && kind.IsReal()
}
