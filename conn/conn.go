// Package conn implements the connection state machine (§4.7): the
// handshake, query and insert request/response cycles, ping-based health
// checking, and reconnect. It is grounded on the teacher's
// IngestConnection (_teachercopy/ingestConnection.go) and its muxer's
// retry logic (_teachercopy/muxer.go) — a mutex-guarded connection
// struct with a running flag, an authenticate-on-open handshake
// function, and a higher layer that swaps in a fresh connection when
// health checks fail — generalised from the ingest wire protocol to this
// one's Hello/Query/Data/Exception packet set.
package conn

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/logx"
	"github.com/chxdb/chxdb/proto"
	"github.com/chxdb/chxdb/wire"
)

// State is one node of the connection state machine (§4.7).
type State int

const (
	StateClosed State = iota
	StateHandshaking
	StateIdle
	StateAwaitingSampleHeader
	StateSendingInsertData
	StateAwaitingResponseStream
	StateAwaitingEndOfStream
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHandshaking:
		return "handshaking"
	case StateIdle:
		return "idle"
	case StateAwaitingSampleHeader:
		return "awaiting-sample-header"
	case StateSendingInsertData:
		return "sending-insert-data"
	case StateAwaitingResponseStream:
		return "awaiting-response-stream"
	case StateAwaitingEndOfStream:
		return "awaiting-end-of-stream"
	default:
		return "unknown"
	}
}

// Config carries everything needed to open and authenticate a Connection.
type Config struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	Compress       bool
	Settings       map[string]string
	ClientName     string
	VersionMajor   uint64
	VersionMinor   uint64
	ClientRevision uint64
	Log            *logx.Logger
}

// QueryResponse is the ordered list of non-Progress response items
// collected until EndOfStream (§4.7).
type QueryResponse struct {
	Blocks      []*block.Block
	Totals      *block.Block
	Extremes    *block.Block
	ProfileInfo *proto.ProfileInfoMsg
}

// Connection is a single physical connection to one server, carrying its
// own socket and codec; it is not safe for concurrent use (§5) — callers
// must serialise operations on one Connection the same way IngestConnection
// expects a single writer to hold its mutex across one request.
type Connection struct {
	cfg  Config
	mtx  sync.Mutex
	conn net.Conn
	r    *wire.Reader
	w    *wire.Writer
	st   State

	serverRevision uint64
	serverTimezone string

	running bool
}

// Open dials host:port, runs the Hello handshake, and returns a
// Connection in the Idle state.
func Open(ctx context.Context, cfg Config) (*Connection, error) {
	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	addr := net.JoinHostPort(cfg.Host, portString(cfg.Port))
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionClosed, "dial server", err)
	}

	// Pair the buffered reader with nc's SetReadDeadline so wire.Reader
	// still finds a deadline setter and applies the per-read timeout.
	type readDeadliner interface{ SetReadDeadline(time.Time) error }
	br := struct {
		*bufio.Reader
		readDeadliner
	}{bufio.NewReader(nc), nc}

	c := &Connection{
		cfg:     cfg,
		conn:    nc,
		r:       wire.NewReader(br),
		w:       wire.NewWriter(bufio.NewWriter(nc)),
		st:      StateHandshaking,
		running: true,
	}
	c.r.SetTimeout(cfg.QueryTimeout)
	c.w.SetTimeout(cfg.QueryTimeout)

	if err := c.handshake(); err != nil {
		nc.Close()
		return nil, err
	}
	c.st = StateIdle
	return c, nil
}

func portString(port int) string {
	if port == 0 {
		port = 9000
	}
	return strconv.Itoa(port)
}

func (c *Connection) handshake() error {
	hello := &proto.ClientHelloMsg{
		ClientName:   c.cfg.ClientName,
		VersionMajor: c.cfg.VersionMajor,
		VersionMinor: c.cfg.VersionMinor,
		Revision:     c.cfg.ClientRevision,
		DefaultDB:    c.cfg.Database,
		User:         c.cfg.User,
		Password:     c.cfg.Password,
	}
	if err := hello.Encode(c.w); err != nil {
		return c.fail(err)
	}
	if err := c.w.Flush(); err != nil {
		return c.fail(errs.Wrap(errs.ConnectionClosed, "flush hello", err))
	}

	msg, err := proto.ReadServerMessage(c.r, false)
	if err != nil {
		return c.fail(err)
	}
	switch msg.Kind {
	case proto.ServerHello:
		c.serverRevision = msg.Hello.Revision
		c.serverTimezone = msg.Hello.Timezone
		c.cfg.Log.Info("handshake complete",
			logx.Field("server", msg.Hello.ServerName),
			logx.Field("revision", strconv.FormatUint(msg.Hello.Revision, 10)))
		return nil
	case proto.ServerException:
		return toServerException(msg.Exception)
	default:
		return c.fail(errs.New(errs.ProtocolViolation, "expected Hello during handshake"))
	}
}

// State returns the connection's current state-machine node.
func (c *Connection) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.st
}

// fail marks the connection Closed and returns the triggering error,
// matching §7's "frame- and protocol-level errors mark the connection
// Closed and are surfaced immediately."
func (c *Connection) fail(err error) error {
	c.st = StateClosed
	c.running = false
	c.cfg.Log.Warn("connection failed", logx.Field("error", err.Error()))
	return err
}

// Close releases the socket; idempotent, as IngestConnection.Close also
// guards against a second call.
func (c *Connection) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	c.st = StateClosed
	return c.conn.Close()
}

func toServerException(e *proto.ExceptionMsg) error {
	var wrap func(e *proto.ExceptionMsg) *errs.Exception
	wrap = func(e *proto.ExceptionMsg) *errs.Exception {
		if e == nil {
			return nil
		}
		return &errs.Exception{
			Code:       e.Code,
			Name:       e.Name,
			Message:    e.Message,
			StackTrace: e.StackTrace,
			Nested:     wrap(e.Nested),
		}
	}
	return wrap(e)
}
