package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tobsdb/reldb/internal/catalog"
	"github.com/tobsdb/reldb/internal/query"
	"github.com/tobsdb/reldb/internal/table"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__reldb_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrTableExists):
		return http.StatusConflict
	}
	return query.ErrorStatus(err)
}

func errorResponse(err error) Response {
	return NewErrorResponse(errorStatus(err), err.Error())
}

// derivedResponse registers the result of an operator and returns it.
func derivedResponse(c *catalog.Catalog, t *table.Table) Response {
	if err := c.Put(t); err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Created table %s with %d tuples", t.Name, t.Len()),
		query.View(t))
}

type CreateTableRequest struct {
	Name       string `json:"name"`
	Attributes string `json:"attributes"`
	Domains    string `json:"domains"`
	Key        string `json:"key"`
	// $TABLE declarations; preferred over the fields above
	Schema string `json:"schema"`
}

func CreateTableReqHandler(c *catalog.Catalog, raw []byte) Response {
	var req CreateTableRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	if req.Schema != "" {
		created, err := c.CreateFromSchema(req.Schema)
		if err != nil {
			return errorResponse(err)
		}
		views := make([]query.TableView, len(created))
		for i, t := range created {
			views[i] = query.Describe(t)
		}
		return NewResponse(http.StatusCreated, fmt.Sprintf("Created %d tables", len(created)), views)
	}

	if req.Name == "" {
		return NewErrorResponse(http.StatusBadRequest, "Missing table name")
	}
	schema, err := table.ParseSchema(req.Attributes, req.Domains, req.Key)
	if err != nil {
		return errorResponse(err)
	}
	t, err := c.Create(req.Name, schema)
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created table %s", t.Name), query.Describe(t))
}

type InsertRequest struct {
	Table string `json:"table"`
	Data  []any  `json:"data"`
}

func InsertReqHandler(c *catalog.Catalog, raw []byte) Response {
	var req InsertRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, err := c.Get(req.Table)
	if err != nil {
		return errorResponse(err)
	}
	tup, err := query.CoerceTuple(t.Schema, req.Data)
	if err != nil {
		return errorResponse(err)
	}
	if err := t.Insert(tup); err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusCreated, fmt.Sprintf("Inserted tuple into table %s", t.Name), tup)
}

type InsertManyRequest struct {
	Table string  `json:"table"`
	Data  [][]any `json:"data"`
}

// InsertManyReqHandler checks every tuple before inserting any of them.
// A duplicate key can still stop the insert part way; the response reports
// how many tuples went in.
func InsertManyReqHandler(c *catalog.Catalog, raw []byte) Response {
	var req InsertManyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, err := c.Get(req.Table)
	if err != nil {
		return errorResponse(err)
	}
	tuples := make([]table.Tuple, len(req.Data))
	for i, values := range req.Data {
		tup, err := query.CoerceTuple(t.Schema, values)
		if err != nil {
			return NewErrorResponse(errorStatus(err), fmt.Sprintf("tuple %d: %s", i, err))
		}
		tuples[i] = tup
	}
	for i, tup := range tuples {
		if err := t.Insert(tup); err != nil {
			return NewResponse(errorStatus(err),
				fmt.Sprintf("Inserted %d tuples into table %s; tuple %d: %s", i, t.Name, i, err), i)
		}
	}
	return NewResponse(http.StatusCreated,
		fmt.Sprintf("Inserted %d tuples into table %s", len(tuples), t.Name), len(tuples))
}

type SelectRequest struct {
	Table string         `json:"table"`
	Where query.QueryArg `json:"where"`
}

func SelectReqHandler(c *catalog.Catalog, raw []byte) Response {
	var req SelectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, err := c.Get(req.Table)
	if err != nil {
		return errorResponse(err)
	}
	pred, err := query.Where(t.Schema, req.Where)
	if err != nil {
		return errorResponse(err)
	}
	return derivedResponse(c, t.Select(pred))
}

type KeyRequest struct {
	Table string `json:"table"`
	Key   []any  `json:"key"`
}

func keyReqHandler(c *catalog.Catalog, raw []byte, indexed bool) Response {
	var req KeyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, err := c.Get(req.Table)
	if err != nil {
		return errorResponse(err)
	}
	key, err := query.CoerceKey(t.Schema, req.Key)
	if err != nil {
		return errorResponse(err)
	}
	if indexed {
		return derivedResponse(c, t.SelectKey(key))
	}
	return derivedResponse(c, t.NonIndexSelect(key))
}

func SelectKeyReqHandler(c *catalog.Catalog, raw []byte) Response {
	return keyReqHandler(c, raw, true)
}

func NonIndexSelectReqHandler(c *catalog.Catalog, raw []byte) Response {
	return keyReqHandler(c, raw, false)
}

type ProjectRequest struct {
	Table      string   `json:"table"`
	Attributes []string `json:"attributes"`
}

func ProjectReqHandler(c *catalog.Catalog, raw []byte) Response {
	var req ProjectRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, err := c.Get(req.Table)
	if err != nil {
		return errorResponse(err)
	}
	res, err := t.Project(req.Attributes...)
	if err != nil {
		return errorResponse(err)
	}
	return derivedResponse(c, res)
}

type BinaryRequest struct {
	Table  string `json:"table"`
	Table2 string `json:"table2"`
}

func (req BinaryRequest) resolve(c *catalog.Catalog) (*table.Table, *table.Table, error) {
	t, err := c.Get(req.Table)
	if err != nil {
		return nil, nil, err
	}
	t2, err := c.Get(req.Table2)
	if err != nil {
		return nil, nil, err
	}
	return t, t2, nil
}

// binaryReqHandler runs an operator taking two tables.
func binaryReqHandler(c *catalog.Catalog, raw []byte, op func(t, t2 *table.Table) (*table.Table, error)) Response {
	var req BinaryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, t2, err := req.resolve(c)
	if err != nil {
		return errorResponse(err)
	}
	res, err := op(t, t2)
	if err != nil {
		return errorResponse(err)
	}
	return derivedResponse(c, res)
}

func UnionReqHandler(c *catalog.Catalog, raw []byte) Response {
	return binaryReqHandler(c, raw, (*table.Table).Union)
}

func UnionDistinctReqHandler(c *catalog.Catalog, raw []byte) Response {
	return binaryReqHandler(c, raw, (*table.Table).UnionDistinct)
}

func MinusReqHandler(c *catalog.Catalog, raw []byte) Response {
	return binaryReqHandler(c, raw, (*table.Table).Minus)
}

func NaturalJoinReqHandler(c *catalog.Catalog, raw []byte) Response {
	return binaryReqHandler(c, raw, (*table.Table).NaturalJoin)
}

func SemiJoinReqHandler(c *catalog.Catalog, raw []byte) Response {
	return binaryReqHandler(c, raw, func(t, t2 *table.Table) (*table.Table, error) {
		return t.SemiJoin(t2), nil
	})
}

type JoinRequest struct {
	BinaryRequest
	Attributes1 []string `json:"attributes1"`
	Attributes2 []string `json:"attributes2"`
}

type joinKind int

const (
	joinHash joinKind = iota
	joinNested
	joinIndex
)

func joinReqHandler(c *catalog.Catalog, raw []byte, kind joinKind) Response {
	var req JoinRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	t, t2, err := req.resolve(c)
	if err != nil {
		return errorResponse(err)
	}

	var res *table.Table
	switch kind {
	case joinHash:
		res, err = t.Join(req.Attributes1, req.Attributes2, t2)
	case joinNested:
		res, err = t.NonIndexJoin(req.Attributes1, req.Attributes2, t2)
	case joinIndex:
		res, err = t.IndexJoin(req.Attributes1, t2)
	}
	if err != nil {
		return errorResponse(err)
	}
	return derivedResponse(c, res)
}

func JoinReqHandler(c *catalog.Catalog, raw []byte) Response {
	return joinReqHandler(c, raw, joinHash)
}

func NonIndexJoinReqHandler(c *catalog.Catalog, raw []byte) Response {
	return joinReqHandler(c, raw, joinNested)
}

func IndexJoinReqHandler(c *catalog.Catalog, raw []byte) Response {
	return joinReqHandler(c, raw, joinIndex)
}

type TableRequest struct {
	Table string `json:"table"`
}

func tableReqHandler(raw []byte, fn func(name string) Response) Response {
	var req TableRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	if req.Table == "" {
		return NewErrorResponse(http.StatusBadRequest, "Missing table name")
	}
	return fn(req.Table)
}

func SaveReqHandler(c *catalog.Catalog, raw []byte) Response {
	return tableReqHandler(raw, func(name string) Response {
		if err := c.Save(name); err != nil {
			return errorResponse(err)
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Saved table %s", name), nil)
	})
}

func LoadReqHandler(c *catalog.Catalog, raw []byte) Response {
	return tableReqHandler(raw, func(name string) Response {
		t, err := c.Load(name)
		if err != nil {
			return errorResponse(err)
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Loaded table %s", name), query.Describe(t))
	})
}

func DropTableReqHandler(c *catalog.Catalog, raw []byte) Response {
	return tableReqHandler(raw, func(name string) Response {
		if err := c.Drop(name); err != nil {
			return errorResponse(err)
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Dropped table %s", name), nil)
	})
}

func DescribeReqHandler(c *catalog.Catalog, raw []byte) Response {
	return tableReqHandler(raw, func(name string) Response {
		t, err := c.Get(name)
		if err != nil {
			return errorResponse(err)
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Table %s has %d tuples", name, t.Len()), query.Describe(t))
	})
}

func ListTablesReqHandler(c *catalog.Catalog) Response {
	names := c.List()
	return NewResponse(http.StatusOK, fmt.Sprintf("Found %d tables", len(names)), names)
}
