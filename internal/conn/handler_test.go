package conn_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"github.com/tobsdb/reldb/internal/auth"
	"github.com/tobsdb/reldb/internal/catalog"
	. "github.com/tobsdb/reldb/internal/conn"
	"github.com/tobsdb/reldb/internal/query"
	"github.com/tobsdb/reldb/internal/snapshot"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/internal/types"
	"gotest.tools/assert"
)

func reqEncode(v map[string]any) []byte {
	raw, _ := json.Marshal(v)
	return raw
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	return catalog.New(table.NewContext(snapshot.NewStore(t.TempDir()), logr.Discard()))
}

// newStudentCatalog holds Student(id Integer, name String, grade Character) key(id)
// with n tuples.
func newStudentCatalog(t *testing.T, n int) *catalog.Catalog {
	c := newTestCatalog(t)
	res := CreateTableReqHandler(c, reqEncode(map[string]any{
		"name": "Student", "attributes": "id name grade",
		"domains": "Integer String Character", "key": "id",
	}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	data := [][]any{}
	for i := 1; i <= n; i++ {
		data = append(data, []any{i, "student", "A"})
	}
	if n > 0 {
		res = InsertManyReqHandler(c, reqEncode(map[string]any{"table": "Student", "data": data}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	}
	return c
}

func TestCreateTableReqHandler(t *testing.T) {
	t.Run("simple create", func(t *testing.T) {
		c := newStudentCatalog(t, 0)
		assert.DeepEqual(t, c.List(), []string{"Student"})
	})

	t.Run("duplicate table", func(t *testing.T) {
		c := newStudentCatalog(t, 0)
		res := CreateTableReqHandler(c, reqEncode(map[string]any{
			"name": "Student", "attributes": "id", "domains": "Integer", "key": "id",
		}))
		assert.Equal(t, res.Status, http.StatusConflict, res.Message)
	})

	t.Run("missing name", func(t *testing.T) {
		res := CreateTableReqHandler(newTestCatalog(t), reqEncode(map[string]any{"attributes": "id"}))
		assert.Equal(t, res.Status, http.StatusBadRequest)
		assert.Equal(t, res.Message, "Missing table name")
	})

	t.Run("invalid domain", func(t *testing.T) {
		res := CreateTableReqHandler(newTestCatalog(t), reqEncode(map[string]any{
			"name": "a", "attributes": "id", "domains": "Number", "key": "id",
		}))
		assert.Equal(t, res.Status, http.StatusBadRequest)
	})

	t.Run("from schema", func(t *testing.T) {
		c := newTestCatalog(t)
		res := CreateTableReqHandler(c, reqEncode(map[string]any{"schema": `
$TABLE a {
    id Integer key(primary)
}

$TABLE b {
    id Integer key(primary)
    a_id Integer relation(a.id)
}`}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
		assert.Equal(t, len(res.Data.([]query.TableView)), 2)
		assert.DeepEqual(t, c.List(), []string{"a", "b"})
	})
}

func TestInsertReqHandler(t *testing.T) {
	t.Run("simple insert", func(t *testing.T) {
		c := newStudentCatalog(t, 0)
		res := InsertReqHandler(c, reqEncode(map[string]any{"table": "Student", "data": []any{1, "ada", "B"}}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
		assert.Equal(t, res.Message, "Inserted tuple into table Student")
	})

	t.Run("table not found", func(t *testing.T) {
		res := InsertReqHandler(newTestCatalog(t), reqEncode(map[string]any{"table": "b", "data": []any{1}}))
		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})

	t.Run("duplicate key", func(t *testing.T) {
		c := newStudentCatalog(t, 1)
		res := InsertReqHandler(c, reqEncode(map[string]any{"table": "Student", "data": []any{1, "ada", "B"}}))
		assert.Equal(t, res.Status, http.StatusConflict, res.Message)
	})

	t.Run("type violation", func(t *testing.T) {
		c := newStudentCatalog(t, 0)
		res := InsertReqHandler(c, reqEncode(map[string]any{"table": "Student", "data": []any{"one", "ada", "B"}}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)

		res = InsertReqHandler(c, reqEncode(map[string]any{"table": "Student", "data": []any{1, "ada"}}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})
}

func TestInsertManyReqHandler(t *testing.T) {
	t.Run("bad tuple inserts nothing", func(t *testing.T) {
		c := newStudentCatalog(t, 0)
		res := InsertManyReqHandler(c, reqEncode(map[string]any{
			"table": "Student", "data": [][]any{{1, "a", "A"}, {"x", "b", "B"}},
		}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
		s, _ := c.Get("Student")
		assert.Equal(t, s.Len(), 0)
	})

	t.Run("duplicate stops part way", func(t *testing.T) {
		c := newStudentCatalog(t, 0)
		res := InsertManyReqHandler(c, reqEncode(map[string]any{
			"table": "Student", "data": [][]any{{1, "a", "A"}, {2, "b", "B"}, {1, "c", "C"}},
		}))
		assert.Equal(t, res.Status, http.StatusConflict, res.Message)
		assert.Equal(t, res.Data, 2)
	})
}

func TestSelectReqHandlers(t *testing.T) {
	c := newStudentCatalog(t, 10)

	t.Run("select key", func(t *testing.T) {
		res := SelectKeyReqHandler(c, reqEncode(map[string]any{"table": "Student", "key": []any{5}}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		view := res.Data.(query.TableView)
		assert.Equal(t, len(view.Tuples), 1)
		assert.Equal(t, view.Tuples[0][0], 5)

		// the result is registered under its derived name
		_, err := c.Get(view.Name)
		assert.NilError(t, err)
	})

	t.Run("non index select agrees", func(t *testing.T) {
		res := NonIndexSelectReqHandler(c, reqEncode(map[string]any{"table": "Student", "key": []any{5}}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.DeepEqual(t, res.Data.(query.TableView).Tuples, [][]any{{5, "student", types.Char('A')}})
	})

	t.Run("key arity", func(t *testing.T) {
		res := SelectKeyReqHandler(c, reqEncode(map[string]any{"table": "Student", "key": []any{5, 6}}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})

	t.Run("select where", func(t *testing.T) {
		res := SelectReqHandler(c, reqEncode(map[string]any{"table": "Student", "where": map[string]any{"grade": "A"}}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, len(res.Data.(query.TableView).Tuples), 10)

		res = SelectReqHandler(c, reqEncode(map[string]any{"table": "Student", "where": map[string]any{"age": 1}}))
		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})

	t.Run("project", func(t *testing.T) {
		res := ProjectReqHandler(c, reqEncode(map[string]any{"table": "Student", "attributes": []string{"grade"}}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		view := res.Data.(query.TableView)
		assert.DeepEqual(t, view.Attributes, []string{"grade"})
		assert.DeepEqual(t, view.Key, []string{"grade"})
	})
}

func TestAlgebraReqHandlers(t *testing.T) {
	c := newStudentCatalog(t, 4)
	res := CreateTableReqHandler(c, reqEncode(map[string]any{
		"name": "Transcript", "attributes": "sid course",
		"domains": "Integer String", "key": "sid course",
	}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	res = InsertManyReqHandler(c, reqEncode(map[string]any{
		"table": "Transcript", "data": [][]any{{1, "math"}, {1, "art"}, {3, "math"}},
	}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	t.Run("joins agree", func(t *testing.T) {
		req := map[string]any{
			"table": "Transcript", "table2": "Student",
			"attributes1": []string{"sid"}, "attributes2": []string{"id"},
		}
		hash := JoinReqHandler(c, reqEncode(req))
		assert.Equal(t, hash.Status, http.StatusOK, hash.Message)
		nested := NonIndexJoinReqHandler(c, reqEncode(req))
		assert.Equal(t, nested.Status, http.StatusOK, nested.Message)
		index := IndexJoinReqHandler(c, reqEncode(req))
		assert.Equal(t, index.Status, http.StatusOK, index.Message)

		assert.Equal(t, len(hash.Data.(query.TableView).Tuples), 3)
		assert.DeepEqual(t, hash.Data.(query.TableView).Tuples, nested.Data.(query.TableView).Tuples)
		assert.DeepEqual(t, hash.Data.(query.TableView).Tuples, index.Data.(query.TableView).Tuples)
	})

	t.Run("malformed join", func(t *testing.T) {
		res := JoinReqHandler(c, reqEncode(map[string]any{
			"table": "Transcript", "table2": "Student",
			"attributes1": []string{"sid", "course"}, "attributes2": []string{"id"},
		}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})

	t.Run("set operators", func(t *testing.T) {
		res := UnionReqHandler(c, reqEncode(map[string]any{"table": "Student", "table2": "Student"}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, len(res.Data.(query.TableView).Tuples), 8)

		res = UnionDistinctReqHandler(c, reqEncode(map[string]any{"table": "Student", "table2": "Student"}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, len(res.Data.(query.TableView).Tuples), 4)

		res = MinusReqHandler(c, reqEncode(map[string]any{"table": "Student", "table2": "Student"}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, len(res.Data.(query.TableView).Tuples), 0)

		res = UnionReqHandler(c, reqEncode(map[string]any{"table": "Student", "table2": "Transcript"}))
		assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
	})

	t.Run("semi join", func(t *testing.T) {
		res := SemiJoinReqHandler(c, reqEncode(map[string]any{"table": "Student", "table2": "Student"}))
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, len(res.Data.(query.TableView).Tuples), 4)
	})

	t.Run("table not found", func(t *testing.T) {
		res := NaturalJoinReqHandler(c, reqEncode(map[string]any{"table": "Student", "table2": "Course"}))
		assert.Equal(t, res.Status, http.StatusNotFound, res.Message)
	})
}

func TestTableReqHandlers(t *testing.T) {
	c := newStudentCatalog(t, 3)

	res := DescribeReqHandler(c, reqEncode(map[string]any{"table": "Student"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Table Student has 3 tuples")
	assert.Assert(t, res.Data.(query.TableView).Tuples == nil)

	res = SaveReqHandler(c, reqEncode(map[string]any{"table": "Student"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = DropTableReqHandler(c, reqEncode(map[string]any{"table": "Student"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, len(ListTablesReqHandler(c).Data.([]string)), 0)

	res = LoadReqHandler(c, reqEncode(map[string]any{"table": "Student"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.DeepEqual(t, ListTablesReqHandler(c).Data.([]string), []string{"Student"})

	res = LoadReqHandler(c, reqEncode(map[string]any{"table": "Student"}))
	assert.Equal(t, res.Status, http.StatusConflict, res.Message)

	res = LoadReqHandler(c, reqEncode(map[string]any{"table": "../Student"}))
	assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)

	res = LoadReqHandler(c, reqEncode(map[string]any{"table": "Course"}))
	assert.Equal(t, res.Status, http.StatusInternalServerError, res.Message)

	res = DropTableReqHandler(c, reqEncode(map[string]any{}))
	assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
}

func newTestDB(t *testing.T) *RelDB {
	admin, err := auth.NewUser("admin", "secret", auth.UserRoleAdmin)
	assert.NilError(t, err)
	reader, err := auth.NewUser("reader", "secret", auth.UserRoleReadOnly)
	assert.NilError(t, err)

	db, err := NewRelDB(auth.Users{admin, reader}, NewWriteSettings(t.TempDir(), true, 0), LogOptions{})
	assert.NilError(t, err)
	return db
}

func TestActionHandler(t *testing.T) {
	db := newTestDB(t)
	admin, _ := db.Users.Authenticate("admin", "secret")
	reader, _ := db.Users.Authenticate("reader", "secret")

	create := reqEncode(map[string]any{"name": "a", "attributes": "id", "domains": "Int", "key": "id"})

	res := db.ActionHandler(reader, RequestActionCreateTable, create)
	assert.Equal(t, res.Status, http.StatusForbidden, res.Message)

	res = db.ActionHandler(admin, RequestActionCreateTable, create)
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = db.ActionHandler(reader, RequestActionListTables, nil)
	assert.Equal(t, res.Status, http.StatusOK, res.Message)

	res = db.ActionHandler(admin, RequestAction("truncate"), nil)
	assert.Equal(t, res.Status, http.StatusBadRequest)
	assert.Equal(t, res.Message, "unknown action: truncate")
}

func TestDerivedTableNames(t *testing.T) {
	db := newTestDB(t)
	admin, _ := db.Users.Authenticate("admin", "secret")
	reader, _ := db.Users.Authenticate("reader", "secret")

	for _, name := range []string{"S", "S0"} {
		res := db.ActionHandler(admin, RequestActionCreateTable,
			reqEncode(map[string]any{"name": name, "attributes": "id", "domains": "Integer", "key": "id"}))
		assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	}
	res := db.ActionHandler(admin, RequestActionInsert, reqEncode(map[string]any{"table": "S0", "data": []any{42}}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = db.ActionHandler(reader, RequestActionSelect, reqEncode(map[string]any{"table": "S"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Data.(query.TableView).Name, "S1")

	res = db.ActionHandler(reader, RequestActionDescribe, reqEncode(map[string]any{"table": "S0"}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, res.Message, "Table S0 has 1 tuples")

	res = db.ActionHandler(admin, RequestActionCreateTable,
		reqEncode(map[string]any{"name": "../x", "attributes": "id", "domains": "Integer", "key": "id"}))
	assert.Equal(t, res.Status, http.StatusBadRequest, res.Message)
}

func TestRequestAction(t *testing.T) {
	assert.Assert(t, RequestActionJoin.IsReadOnly())
	assert.Assert(t, RequestActionJoin.IsAlgebra())
	assert.Assert(t, !RequestActionInsert.IsReadOnly())
	assert.Assert(t, !RequestActionDescribe.IsAlgebra())
}

func dial(t *testing.T, server *httptest.Server, username, password string) (*websocket.Conn, *http.Response, error) {
	u, _ := url.Parse(server.URL)
	u.Scheme = "ws"
	q := u.Query()
	q.Set("username", username)
	q.Set("password", password)
	u.RawQuery = q.Encode()
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

func TestHandleConnection(t *testing.T) {
	db := newTestDB(t)
	server := httptest.NewServer(db.Handler())
	defer server.Close()

	t.Run("health", func(t *testing.T) {
		res, err := http.Get(server.URL + "/health")
		assert.NilError(t, err)
		defer res.Body.Close()
		assert.Equal(t, res.StatusCode, http.StatusOK)
	})

	t.Run("invalid auth", func(t *testing.T) {
		conn, res, err := dial(t, server, "admin", "wrong")
		assert.NilError(t, err)
		defer conn.Close()
		assert.Equal(t, res.Header.Get("tdb-error"), auth.InvalidCredentials.Error())
	})

	t.Run("round trip", func(t *testing.T) {
		conn, res, err := dial(t, server, "admin", "secret")
		assert.NilError(t, err)
		defer conn.Close()
		assert.Equal(t, res.Header.Get("tdb-error"), "")

		send := func(req map[string]any) Response {
			assert.NilError(t, conn.WriteJSON(req))
			var res Response
			assert.NilError(t, conn.ReadJSON(&res))
			return res
		}

		res1 := send(map[string]any{
			"action": "createTable", "__reldb_client_req_id__": 1,
			"name": "Student", "attributes": "id name", "domains": "Integer String", "key": "id",
		})
		assert.Equal(t, res1.Status, http.StatusCreated, res1.Message)
		assert.Equal(t, res1.ReqId, 1)

		res2 := send(map[string]any{"action": "insert", "table": "Student", "data": []any{7, "ada"}})
		assert.Equal(t, res2.Status, http.StatusCreated, res2.Message)

		res3 := send(map[string]any{"action": "selectKey", "table": "Student", "key": []any{7}})
		assert.Equal(t, res3.Status, http.StatusOK, res3.Message)
		tuples := res3.Data.(map[string]any)["tuples"].([]any)
		assert.DeepEqual(t, tuples, []any{[]any{float64(7), "ada"}})

		res4 := send(map[string]any{"action": "xxx"})
		assert.Equal(t, res4.Status, http.StatusBadRequest)
	})
}

func TestWriteToFile(t *testing.T) {
	dir := t.TempDir()
	admin, err := auth.NewUser("admin", "secret", auth.UserRoleAdmin)
	assert.NilError(t, err)

	db, err := NewRelDB(auth.Users{admin}, NewWriteSettings(dir, false, 1000), LogOptions{})
	assert.NilError(t, err)
	res := db.ActionHandler(admin, RequestActionCreateTable,
		reqEncode(map[string]any{"name": "a", "attributes": "id", "domains": "Integer", "key": "id"}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	res = db.ActionHandler(admin, RequestActionInsert, reqEncode(map[string]any{"table": "a", "data": []any{1}}))
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	db.WriteToFile()

	reloaded, err := NewRelDB(auth.Users{admin}, NewWriteSettings(dir, false, 1000), LogOptions{})
	assert.NilError(t, err)
	res = reloaded.ActionHandler(admin, RequestActionSelectKey, reqEncode(map[string]any{"table": "a", "key": []any{1}}))
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	assert.Equal(t, len(res.Data.(query.TableView).Tuples), 1)
}
