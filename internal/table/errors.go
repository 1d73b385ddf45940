package table

import "github.com/pkg/errors"

var (
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrTypeViolation     = errors.New("type violation")
	ErrMalformedJoin     = errors.New("malformed join")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInvalidSchema     = errors.New("invalid schema")
	ErrPersistence       = errors.New("persistence failure")
)

func attributeNotFound(attr string) error {
	return errors.Wrapf(ErrAttributeNotFound, "%s", attr)
}
