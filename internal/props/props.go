package props

import "golang.org/x/exp/slices"

type FieldProp string

var VALID_BUILTIN_PROPS = []FieldProp{FieldPropKey, FieldPropRelation}

const (
	FieldPropKey      FieldProp = "key"      // key(primary)
	FieldPropRelation FieldProp = "relation" // relation(table.field)
)

func (p FieldProp) IsValid() bool {
	return slices.Contains(VALID_BUILTIN_PROPS, p)
}

const KeyPropPrimary string = "primary"
