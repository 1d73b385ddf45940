// Package client talks to a reldb server over websockets.
//
//	c, err := client.NewClient("ws://localhost:7085", client.ClientOptions{Username: "admin", Password: "secret"})
//	if err != nil { ... }
//	defer c.Disconnect()
//
//	c.CreateTable("Student", "id name", "Integer String", "id")
//	c.Insert("Student", 1, "ada")
//	res, err := c.SelectKey("Student", 1)
package client

import (
	"fmt"
	"net/url"
	"sync"

	ws "github.com/gorilla/websocket"
	"github.com/tobsdb/reldb/pkg"
)

type (
	ClientOptions struct {
		Username string
		Password string
	}

	// Unless you know what you're doing, you probably want to use
	// the `NewClient` function instead.
	Client struct {
		mu     sync.Mutex
		conn   *ws.Conn
		req_id int
		// The formatted connection url of the reldb server
		Url *url.URL
	}
)

func NewClient(url_str string, options ClientOptions) (*Client, error) {
	Url, err := url.Parse(url_str)
	if err != nil {
		return nil, err
	}

	q := Url.Query()
	q.Set("username", options.Username)
	q.Set("password", options.Password)
	Url.RawQuery = q.Encode()

	return &Client{Url: Url}, nil
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connect()
}

func (c *Client) connect() error {
	if c.conn != nil {
		return nil
	}
	conn, res, err := ws.DefaultDialer.Dial(c.Url.String(), nil)
	if err != nil {
		return err
	}
	if err := res.Header.Get("tdb-error"); err != "" {
		conn.Close()
		return fmt.Errorf("RelDB Error: %s", err)
	}

	pkg.InfoLog("Connected to RelDB server")
	c.conn = conn
	return nil
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	defer func() { c.conn = nil }()

	err := c.conn.WriteMessage(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, "Disconnect"))
	if err != nil {
		pkg.ErrorLog(err)
		c.conn.Close()
		return err
	}
	if err := c.conn.Close(); err != nil {
		pkg.ErrorLog(err)
		return err
	}

	pkg.InfoLog("Disconnected from RelDB server")
	return nil
}

type Response struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	RequestId int    `json:"__reldb_client_req_id__"`
}

// Tuples reads the tuples out of a table response.
func (r Response) Tuples() [][]any {
	view, ok := r.Data.(map[string]any)
	if !ok {
		return nil
	}
	raw, _ := view["tuples"].([]any)
	tuples := make([][]any, len(raw))
	for i, tup := range raw {
		tuples[i], _ = tup.([]any)
	}
	return tuples
}

// TableName is the name a derived table was registered under.
func (r Response) TableName() string {
	view, _ := r.Data.(map[string]any)
	name, _ := view["name"].(string)
	return name
}

func (c *Client) query(action string, args map[string]any) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(); err != nil {
		return Response{}, err
	}

	c.req_id++
	req := map[string]any{"action": action, "__reldb_client_req_id__": c.req_id}
	for k, v := range args {
		req[k] = v
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return Response{}, err
	}

	var res Response
	if err := c.conn.ReadJSON(&res); err != nil {
		return res, err
	}
	if res.RequestId != c.req_id {
		return res, fmt.Errorf("Response id %d does not match request id %d", res.RequestId, c.req_id)
	}
	return res, nil
}

func (c *Client) CreateTable(name, attributes, domains, key string) (Response, error) {
	return c.query("createTable", map[string]any{
		"name": name, "attributes": attributes, "domains": domains, "key": key,
	})
}

// CreateSchema creates every table declared in a $TABLE schema.
func (c *Client) CreateSchema(schema string) (Response, error) {
	return c.query("createTable", map[string]any{"schema": schema})
}

func (c *Client) DropTable(name string) (Response, error) {
	return c.query("dropTable", map[string]any{"table": name})
}

func (c *Client) ListTables() (Response, error) {
	return c.query("listTables", nil)
}

func (c *Client) Describe(name string) (Response, error) {
	return c.query("describe", map[string]any{"table": name})
}

func (c *Client) Save(name string) (Response, error) {
	return c.query("save", map[string]any{"table": name})
}

func (c *Client) Load(name string) (Response, error) {
	return c.query("load", map[string]any{"table": name})
}

func (c *Client) Insert(table string, values ...any) (Response, error) {
	return c.query("insert", map[string]any{"table": table, "data": values})
}

func (c *Client) InsertMany(table string, tuples [][]any) (Response, error) {
	return c.query("insertMany", map[string]any{"table": table, "data": tuples})
}

func (c *Client) Select(table string, where map[string]any) (Response, error) {
	return c.query("select", map[string]any{"table": table, "where": where})
}

func (c *Client) SelectKey(table string, key ...any) (Response, error) {
	return c.query("selectKey", map[string]any{"table": table, "key": key})
}

func (c *Client) NonIndexSelect(table string, key ...any) (Response, error) {
	return c.query("nonIndexSelect", map[string]any{"table": table, "key": key})
}

func (c *Client) Project(table string, attributes ...string) (Response, error) {
	return c.query("project", map[string]any{"table": table, "attributes": attributes})
}

func (c *Client) binary(action, table, table2 string) (Response, error) {
	return c.query(action, map[string]any{"table": table, "table2": table2})
}

func (c *Client) Union(table, table2 string) (Response, error) {
	return c.binary("union", table, table2)
}

func (c *Client) UnionDistinct(table, table2 string) (Response, error) {
	return c.binary("unionDistinct", table, table2)
}

func (c *Client) Minus(table, table2 string) (Response, error) {
	return c.binary("minus", table, table2)
}

func (c *Client) NaturalJoin(table, table2 string) (Response, error) {
	return c.binary("naturalJoin", table, table2)
}

func (c *Client) SemiJoin(table, table2 string) (Response, error) {
	return c.binary("semiJoin", table, table2)
}

func (c *Client) join(action, table string, attributes1, attributes2 []string, table2 string) (Response, error) {
	return c.query(action, map[string]any{
		"table": table, "table2": table2,
		"attributes1": attributes1, "attributes2": attributes2,
	})
}

func (c *Client) Join(table string, attributes1, attributes2 []string, table2 string) (Response, error) {
	return c.join("join", table, attributes1, attributes2, table2)
}

func (c *Client) NonIndexJoin(table string, attributes1, attributes2 []string, table2 string) (Response, error) {
	return c.join("nonIndexJoin", table, attributes1, attributes2, table2)
}

// IndexJoin probes the index of table2 with attributes1 of table.
func (c *Client) IndexJoin(table string, attributes1 []string, table2 string) (Response, error) {
	return c.join("indexJoin", table, attributes1, nil, table2)
}
