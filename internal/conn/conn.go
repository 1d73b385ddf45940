package conn

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/tobsdb/reldb/pkg"
)

type WsRequest struct {
	Action RequestAction `json:"action"`
	ReqId  int           `json:"__reldb_client_req_id__"` // used in reldb clients
}

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// credentials reads the username and password from the url query,
// falling back to basic auth.
func credentials(r *http.Request) (string, string) {
	query := r.URL.Query()
	username, password := query.Get("username"), query.Get("password")
	if username == "" {
		if auth_str := query.Get("auth"); auth_str != "" {
			username, password, _ = strings.Cut(auth_str, ":")
		}
	}
	if username == "" {
		username, password, _ = r.BasicAuth()
	}
	return username, password
}

func (db *RelDB) HandleConnection(w http.ResponseWriter, r *http.Request) {
	username, password := credentials(r)
	user, err := db.Users.Authenticate(username, password)
	if err != nil {
		ConnError(w, r, err.Error())
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}
	defer conn.Close()

	pkg.InfoLog("New connection from", conn.RemoteAddr(), "as", user.Name)
	defer pkg.InfoLog("Connection closed from", conn.RemoteAddr())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				pkg.ErrorLog("conn read error", err)
			}
			return
		}

		var req WsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			conn.WriteJSON(NewErrorResponse(http.StatusBadRequest, err.Error()))
			continue
		}

		res := db.ActionHandler(user, req.Action, message)
		res.ReqId = req.ReqId

		if err := conn.WriteJSON(res); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}

		if !req.Action.IsReadOnly() {
			db.markChanged()
		}
	}
}

func ConnError(w http.ResponseWriter, r *http.Request, conn_error string) {
	pkg.InfoLog("connection error:", conn_error)
	headers := http.Header{}
	headers.Set("tdb-error", conn_error)
	conn, err := Upgrader.Upgrade(w, r, headers)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseUnsupportedData, conn_error))
	conn.Close()
}
