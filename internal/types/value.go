package types

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// family groups domains whose values are comparable with each other.
type family int

const (
	familyNone family = iota
	familyInteger
	familyReal
	familyChar
	familyString
)

func familyOf(v any) family {
	switch v.(type) {
	case int, int64, int16, int8:
		return familyInteger
	case float32, float64:
		return familyReal
	case Char:
		return familyChar
	case string:
		return familyString
	}
	return familyNone
}

func asInt(v any) int64 {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	}
	return 0
}

func asFloat(v any) float64 {
	switch v := v.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// Equal compares two scalars by value. Integer kinds compare with each other
// numerically, as do the real kinds; values of different families are
// never equal. NaN equals NaN, matching Compare and Hash.
func Equal(a, b any) bool {
	fa, fb := familyOf(a), familyOf(b)
	if fa != fb {
		return false
	}
	switch fa {
	case familyInteger:
		return asInt(a) == asInt(b)
	case familyReal:
		x, y := asFloat(a), asFloat(b)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case familyChar:
		return a.(Char) == b.(Char)
	case familyString:
		return a.(string) == b.(string)
	}
	return a == nil && b == nil
}

// Compare orders two scalars. Values of different families are ordered by
// family: integer < real < char < string. NaN sorts before every other real.
func Compare(a, b any) int {
	fa, fb := familyOf(a), familyOf(b)
	if fa != fb {
		return cmp.Compare(fa, fb)
	}
	switch fa {
	case familyInteger:
		return cmp.Compare(asInt(a), asInt(b))
	case familyReal:
		return cmp.Compare(asFloat(a), asFloat(b))
	case familyChar:
		return cmp.Compare(a.(Char), b.(Char))
	case familyString:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

// Hash writes a canonical encoding of v to sb. Two values encode to the same
// string iff Equal reports them equal.
func Hash(sb *strings.Builder, v any) {
	switch familyOf(v) {
	case familyInteger:
		sb.WriteByte('i')
		sb.WriteString(strconv.FormatInt(asInt(v), 10))
	case familyReal:
		f := asFloat(v)
		switch {
		case f == 0:
			// -0 == +0
			f = 0
		case math.IsNaN(f):
			// every NaN payload is the same value
			f = math.NaN()
		}
		sb.WriteByte('r')
		sb.WriteString(strconv.FormatUint(math.Float64bits(f), 16))
	case familyChar:
		sb.WriteByte('c')
		sb.WriteString(strconv.Itoa(int(v.(Char))))
	case familyString:
		s := v.(string)
		sb.WriteByte('s')
		sb.WriteString(strconv.Itoa(len(s)))
		sb.WriteByte(':')
		sb.WriteString(s)
	default:
		sb.WriteString(fmt.Sprintf("?%v", v))
	}
	sb.WriteByte(';')
}

// HashAll encodes an ordered list of values, see Hash.
func HashAll(values []any) string {
	var sb strings.Builder
	for _, v := range values {
		Hash(&sb, v)
	}
	return sb.String()
}

func Format(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case Char:
		return v.String()
	}
	return fmt.Sprint(v)
}
