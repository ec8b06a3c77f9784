package conn

import (
	"net"
	"testing"
	"time"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/proto"
	"github.com/chxdb/chxdb/wire"
)

// newTestConnection wires a Connection to one end of an in-memory pipe,
// already past the handshake, and returns the other end for a
// test-authored fake server to drive.
func newTestConnection(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	c := &Connection{
		cfg:            Config{ClientName: "chxdb-test"},
		conn:           client,
		r:              wire.NewReader(client),
		w:              wire.NewWriter(client),
		st:             StateIdle,
		serverRevision: proto.RevisionPatchVersion,
		running:        true,
	}
	return c, server
}

func TestPingSuccess(t *testing.T) {
	c, server := newTestConnection(t)
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sr := wire.NewReader(server)
		sw := wire.NewWriter(server)
		tag, err := sr.VarUint()
		if err != nil || proto.ClientPacket(tag) != proto.ClientPing {
			t.Errorf("expected Ping tag, got %d err=%v", tag, err)
			return
		}
		if err := sw.VarUint(uint64(proto.ServerPong)); err != nil {
			t.Error(err)
		}
	}()

	if !c.Ping(time.Second) {
		t.Fatal("expected ping to succeed")
	}
	<-done
}

func TestPingFailsOnWrongReply(t *testing.T) {
	c, server := newTestConnection(t)
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sr := wire.NewReader(server)
		sw := wire.NewWriter(server)
		if _, err := sr.VarUint(); err != nil {
			t.Error(err)
			return
		}
		if err := sw.VarUint(uint64(proto.ServerEndOfStream)); err != nil {
			t.Error(err)
		}
	}()

	if c.Ping(time.Second) {
		t.Fatal("expected ping to fail on unexpected reply")
	}
	<-done
}

// drainClientQueryRequest reads past one Query packet followed by one
// empty Data packet, the exact shape SendQuery writes, without
// interpreting their contents — it exists only to keep the pipe flowing
// so the fake server below can get to its response.
func drainClientQueryRequest(t *testing.T, sr *wire.Reader) {
	t.Helper()
	if _, err := sr.VarUint(); err != nil { // Query tag
		t.Fatal(err)
	}
	if _, err := sr.String(); err != nil { // query id
		t.Fatal(err)
	}
	// ClientInfo sub-block: query_kind, initial_user, initial_query_id,
	// initial_address, interface, os_user, client_hostname, client_name,
	// version major/minor/revision, quota_key.
	if _, err := sr.U8(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := sr.String(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := sr.U8(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := sr.String(); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := sr.VarUint(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := sr.String(); err != nil { // quota key
		t.Fatal(err)
	}
	if _, err := sr.String(); err != nil { // settings terminator
		t.Fatal(err)
	}
	if _, err := sr.VarUint(); err != nil { // stage
		t.Fatal(err)
	}
	if _, err := sr.U8(); err != nil { // compression
		t.Fatal(err)
	}
	if _, err := sr.String(); err != nil { // query text
		t.Fatal(err)
	}
	// trailing empty Data packet: tag, table name, block
	if _, err := sr.VarUint(); err != nil {
		t.Fatal(err)
	}
	if _, err := sr.String(); err != nil {
		t.Fatal(err)
	}
	if _, err := block.Decode(sr); err != nil {
		t.Fatal(err)
	}
}

func TestSendQueryCollectsBlocksUntilEndOfStream(t *testing.T) {
	c, server := newTestConnection(t)
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sr := wire.NewReader(server)
		sw := wire.NewWriter(server)
		drainClientQueryRequest(t, sr)

		if err := sw.VarUint(uint64(proto.ServerData)); err != nil {
			t.Error(err)
			return
		}
		if err := sw.String(""); err != nil { // optional table name
			t.Error(err)
			return
		}
		if err := block.Encode(sw, &block.Block{}); err != nil {
			t.Error(err)
			return
		}
		if err := sw.VarUint(uint64(proto.ServerEndOfStream)); err != nil {
			t.Error(err)
		}
	}()

	resp, err := c.SendQuery("SELECT 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Blocks) != 1 {
		t.Fatalf("got %d blocks", len(resp.Blocks))
	}
	<-done
}
