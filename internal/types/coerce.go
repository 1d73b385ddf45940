package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Coerce converts loosely typed input (decoded JSON, command line text) into
// the Go representation of domain d. Values already of the right kind are
// returned untouched.
func Coerce(d Domain, input any) (any, error) {
	if d.Accepts(input) {
		return input, nil
	}
	switch d {
	case DomainInteger:
		n, err := coerceInt(d, input, strconv.IntSize)
		return int(n), err
	case DomainLong:
		return coerceInt(d, input, 64)
	case DomainShort:
		n, err := coerceInt(d, input, 16)
		return int16(n), err
	case DomainByte:
		n, err := coerceInt(d, input, 8)
		return int8(n), err
	case DomainFloat:
		f, err := coerceFloat(d, input)
		return float32(f), err
	case DomainDouble:
		return coerceFloat(d, input)
	case DomainString:
		switch input := input.(type) {
		case Char:
			return input.String(), nil
		}
	case DomainCharacter:
		if s, ok := input.(string); ok {
			var c Char
			if err := c.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return nil, invalidValueError(d, input)
}

func coerceInt(d Domain, input any, bits int) (int64, error) {
	var n int64
	switch input := input.(type) {
	case int, int64, int16, int8:
		n = asInt(input)
	case float64:
		if input != math.Trunc(input) {
			return 0, invalidValueError(d, input)
		}
		n = int64(input)
	case json.Number:
		v, err := input.Int64()
		if err != nil {
			return 0, invalidValueError(d, input)
		}
		n = v
	case string:
		v, err := strconv.ParseInt(input, 10, bits)
		if err != nil {
			return 0, invalidValueError(d, input)
		}
		return v, nil
	default:
		return 0, invalidValueError(d, input)
	}
	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if n < -limit || n >= limit {
			return 0, fmt.Errorf("Value out of range for %s: %d", d, n)
		}
	}
	return n, nil
}

func coerceFloat(d Domain, input any) (float64, error) {
	switch input := input.(type) {
	case int, int64, int16, int8:
		return float64(asInt(input)), nil
	case json.Number:
		v, err := input.Float64()
		if err != nil {
			return 0, invalidValueError(d, input)
		}
		return v, nil
	case string:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return 0, invalidValueError(d, input)
		}
		return v, nil
	}
	return 0, invalidValueError(d, input)
}

func invalidValueError(d Domain, input any) error {
	return fmt.Errorf("Invalid value for %s: %v (%T)", d, input, input)
}
