package query

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/table"
)

type QueryError struct {
	msg    string
	status int
}

func NewQueryError(status int, msg string) *QueryError {
	return &QueryError{msg: msg, status: status}
}

func (e QueryError) Error() string { return e.msg }
func (e QueryError) Status() int   { return e.status }

// ErrorStatus picks the HTTP status reported for err.
func ErrorStatus(err error) int {
	var query_error *QueryError
	switch {
	case errors.As(err, &query_error):
		return query_error.Status()
	case errors.Is(err, table.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, table.ErrAttributeNotFound):
		return http.StatusNotFound
	case errors.Is(err, table.ErrPersistence):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
