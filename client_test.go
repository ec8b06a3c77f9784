package chxdb_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/chxdb/chxdb"
	"github.com/chxdb/chxdb/proto"
	"github.com/chxdb/chxdb/wire"
)

// fakeServer accepts one connection, performs the Hello handshake, then
// hands control of the raw socket to handle for the rest of the test.
func fakeServer(t *testing.T, ln net.Listener, handle func(r *wire.Reader, w *wire.Writer)) {
	t.Helper()
	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		defer nc.Close()
		r := wire.NewReader(nc)
		w := wire.NewWriter(nc)

		if _, err := r.VarUint(); err != nil { // Hello tag
			t.Error(err)
			return
		}
		if _, err := r.String(); err != nil { // client_name
			t.Error(err)
			return
		}
		for i := 0; i < 3; i++ { // version_major, version_minor, revision
			if _, err := r.VarUint(); err != nil {
				t.Error(err)
				return
			}
		}
		for i := 0; i < 3; i++ { // default_db, user, password
			if _, err := r.String(); err != nil {
				t.Error(err)
				return
			}
		}
		if err := w.VarUint(uint64(proto.ServerHello)); err != nil {
			t.Error(err)
			return
		}
		if err := w.String("chxtestserver"); err != nil {
			t.Error(err)
			return
		}
		if err := w.VarUint(21); err != nil {
			t.Error(err)
			return
		}
		if err := w.VarUint(9); err != nil {
			t.Error(err)
			return
		}
		if err := w.VarUint(54452); err != nil {
			t.Error(err)
			return
		}
		if err := w.String("UTC"); err != nil {
			t.Error(err)
			return
		}
		if err := w.String("chxtestserver display"); err != nil {
			t.Error(err)
			return
		}
		if err := w.VarUint(1); err != nil {
			t.Error(err)
			return
		}
		if err := w.Flush(); err != nil {
			t.Error(err)
			return
		}
		handle(r, w)
	}()
}

func TestOpenHandshakeAndPing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	fakeServer(t, ln, func(r *wire.Reader, w *wire.Writer) {
		tag, err := r.VarUint()
		if err != nil || proto.ClientPacket(tag) != proto.ClientPing {
			t.Errorf("expected ping, got %d %v", tag, err)
			return
		}
		_ = w.VarUint(uint64(proto.ServerPong))
		_ = w.Flush()
	})

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	cfg := chxdb.Config{
		Host:           host,
		Port:           mustAtoi(t, portStr),
		ConnectTimeout: time.Second,
		QueryTimeout:   time.Second,
	}
	c, err := chxdb.Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if !c.Ping(time.Second) {
		t.Fatal("expected ping to succeed")
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			t.Fatalf("bad port string %q", s)
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
