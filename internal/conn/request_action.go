package conn

import (
	"fmt"
	"net/http"

	"github.com/tobsdb/reldb/internal/auth"
	"github.com/tobsdb/reldb/pkg"
)

type RequestAction string

const (
	// table actions
	RequestActionCreateTable RequestAction = "createTable"
	RequestActionDropTable   RequestAction = "dropTable"
	RequestActionListTables  RequestAction = "listTables"
	RequestActionDescribe    RequestAction = "describe"
	RequestActionSave        RequestAction = "save"
	RequestActionLoad        RequestAction = "load"

	// tuple actions
	RequestActionInsert     RequestAction = "insert"
	RequestActionInsertMany RequestAction = "insertMany"

	// algebra actions; each registers its result as a new table
	RequestActionSelect         RequestAction = "select"
	RequestActionSelectKey      RequestAction = "selectKey"
	RequestActionNonIndexSelect RequestAction = "nonIndexSelect"
	RequestActionProject        RequestAction = "project"
	RequestActionUnion          RequestAction = "union"
	RequestActionUnionDistinct  RequestAction = "unionDistinct"
	RequestActionMinus          RequestAction = "minus"
	RequestActionJoin           RequestAction = "join"
	RequestActionNonIndexJoin   RequestAction = "nonIndexJoin"
	RequestActionIndexJoin      RequestAction = "indexJoin"
	RequestActionNaturalJoin    RequestAction = "naturalJoin"
	RequestActionSemiJoin       RequestAction = "semiJoin"
)

// IsReadOnly reports whether the action leaves stored tables unchanged.
// Algebra actions still register derived tables in the catalog.
func (action RequestAction) IsReadOnly() bool {
	switch action {
	case RequestActionListTables, RequestActionDescribe, RequestActionSave:
		return true
	}
	return action.IsAlgebra()
}

func (action RequestAction) IsAlgebra() bool {
	switch action {
	case RequestActionSelect, RequestActionSelectKey, RequestActionNonIndexSelect,
		RequestActionProject, RequestActionUnion, RequestActionUnionDistinct, RequestActionMinus,
		RequestActionJoin, RequestActionNonIndexJoin, RequestActionIndexJoin,
		RequestActionNaturalJoin, RequestActionSemiJoin:
		return true
	}
	return false
}

func (action RequestAction) clearance() auth.UserRole {
	switch action {
	case RequestActionDropTable, RequestActionLoad:
		return auth.UserRoleAdmin
	case RequestActionCreateTable, RequestActionInsert, RequestActionInsertMany, RequestActionSave:
		return auth.UserRoleReadWrite
	}
	return auth.UserRoleReadOnly
}

func (db *RelDB) ActionHandler(user *auth.User, action RequestAction, raw []byte) (res Response) {
	if !user.HasClearance(action.clearance()) {
		return NewErrorResponse(http.StatusForbidden, auth.InsufficientPermissions.Error())
	}

	c := db.Catalog
	pkg.LockWrap(c, func() {
		switch action {
		case RequestActionCreateTable:
			res = CreateTableReqHandler(c, raw)
		case RequestActionDropTable:
			res = DropTableReqHandler(c, raw)
		case RequestActionListTables:
			res = ListTablesReqHandler(c)
		case RequestActionDescribe:
			res = DescribeReqHandler(c, raw)
		case RequestActionSave:
			res = SaveReqHandler(c, raw)
		case RequestActionLoad:
			res = LoadReqHandler(c, raw)
		case RequestActionInsert:
			res = InsertReqHandler(c, raw)
		case RequestActionInsertMany:
			res = InsertManyReqHandler(c, raw)
		case RequestActionSelect:
			res = SelectReqHandler(c, raw)
		case RequestActionSelectKey:
			res = SelectKeyReqHandler(c, raw)
		case RequestActionNonIndexSelect:
			res = NonIndexSelectReqHandler(c, raw)
		case RequestActionProject:
			res = ProjectReqHandler(c, raw)
		case RequestActionUnion:
			res = UnionReqHandler(c, raw)
		case RequestActionUnionDistinct:
			res = UnionDistinctReqHandler(c, raw)
		case RequestActionMinus:
			res = MinusReqHandler(c, raw)
		case RequestActionJoin:
			res = JoinReqHandler(c, raw)
		case RequestActionNonIndexJoin:
			res = NonIndexJoinReqHandler(c, raw)
		case RequestActionIndexJoin:
			res = IndexJoinReqHandler(c, raw)
		case RequestActionNaturalJoin:
			res = NaturalJoinReqHandler(c, raw)
		case RequestActionSemiJoin:
			res = SemiJoinReqHandler(c, raw)
		default:
			res = NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
		}
	})
	return res
}
