package chxdb

import (
	"context"
	"regexp"
	"time"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/conn"
	"github.com/chxdb/chxdb/insert"
)

// valuesClause recognises the case-insensitive "VALUES (" marker that
// distinguishes an inline-values INSERT from a query whose rows should
// come from the insert input adapter (§6).
var valuesClause = regexp.MustCompile(`(?i)values\s*\(`)

// QueryResponse is the ordered list of non-Progress response items
// collected for a query (§4.7).
type QueryResponse = conn.QueryResponse

// RowSource supplies rows of parameter values for SendInsert (§4.8).
type RowSource = insert.RowSource

// Client is the public facade over one pooled server connection: open,
// send a query, stream insert blocks, ping, close (§1's "the core only
// exposes" list).
type Client struct {
	pool *conn.Pool
	cfg  Config
}

// Open dials the configured server and completes the handshake.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	pool, err := conn.NewPool(ctx, cfg.toConnConfig())
	if err != nil {
		return nil, err
	}
	return &Client{pool: pool, cfg: cfg}, nil
}

// SendQuery runs a non-INSERT statement, or an INSERT without an inline
// VALUES clause, to completion (§6).
func (c *Client) SendQuery(ctx context.Context, query string) (*QueryResponse, error) {
	cn, err := c.pool.Get(ctx, c.cfg.QueryTimeout)
	if err != nil {
		return nil, err
	}
	return cn.SendQuery(query)
}

// SendInsert runs an INSERT whose SQL matches the VALUES( marker: the
// prefix up to the opening paren is sent as the query, and rows come
// from source via the insert input adapter (§6). It returns the total
// number of rows written.
func (c *Client) SendInsert(ctx context.Context, query string, source RowSource) (int64, error) {
	loc := valuesClause.FindStringIndex(query)
	sendQuery := query
	if loc != nil {
		sendQuery = query[:loc[1]-1] // keep up to, not including, the opening '('
	}
	cn, err := c.pool.Get(ctx, c.cfg.QueryTimeout)
	if err != nil {
		return 0, err
	}
	return cn.SendInsert(sendQuery, source)
}

// Ping checks connection health within timeout (§6). This is the same
// check the pool runs internally before each request (§4.7's
// getHealthyPhysicalConnection); calling it directly does not by itself
// trigger a reconnect.
func (c *Client) Ping(timeout time.Duration) bool {
	cn := c.pool.Current()
	if cn == nil {
		return false
	}
	return cn.Ping(timeout)
}

// Close releases the underlying connection; idempotent (§6).
func (c *Client) Close() error {
	return c.pool.Close()
}

// SliceRowSource adapts an in-memory row slice to RowSource, for callers
// binding a small, already-materialised batch of insert parameters.
type SliceRowSource struct {
	Rows []block.Row
	pos  int
}

// Next implements RowSource.
func (s *SliceRowSource) Next() ([]interface{}, bool, error) {
	if s.pos >= len(s.Rows) {
		return nil, false, nil
	}
	row := s.Rows[s.pos]
	s.pos++
	return row, true, nil
}
