package proto

import (
	"bytes"
	"testing"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/wire"
)

func TestClientHelloEncode(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	m := &ClientHelloMsg{
		ClientName:   "chxdb",
		VersionMajor: 1,
		VersionMinor: 0,
		Revision:     RevisionPatchVersion,
		DefaultDB:    "default",
		User:         "default",
		Password:     "",
	}
	if err := m.Encode(w); err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(&buf)
	tag, err := r.VarUint()
	if err != nil || tag != uint64(ClientHello) {
		t.Fatalf("tag=%d err=%v", tag, err)
	}
	name, err := r.String()
	if err != nil || name != "chxdb" {
		t.Fatalf("name=%q err=%v", name, err)
	}
}

func TestServerHelloRevisionGating(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	_ = w.String("chxserver")
	_ = w.VarUint(21)
	_ = w.VarUint(3)
	_ = w.VarUint(RevisionDisplayName) // below patch-version gate, at-or-above display-name gate
	_ = w.String("UTC")
	_ = w.String("chxserver display")

	r := wire.NewReader(&buf)
	got, err := DecodeServerHello(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Timezone != "UTC" || got.DisplayName != "chxserver display" {
		t.Fatalf("got %+v", got)
	}
	if got.PatchVersion != 0 {
		t.Fatalf("did not expect patch version below its gate, got %d", got.PatchVersion)
	}
}

func TestExceptionChainDecoding(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	_ = w.I32(1)
	_ = w.String("Outer")
	_ = w.String("outer message")
	_ = w.String("")
	_ = w.U8(1) // has nested
	_ = w.I32(2)
	_ = w.String("Inner")
	_ = w.String("inner message")
	_ = w.String("")
	_ = w.U8(0)

	r := wire.NewReader(&buf)
	got, err := DecodeException(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Outer" || got.Nested == nil || got.Nested.Name != "Inner" {
		t.Fatalf("got %+v", got)
	}
	if got.Nested.Nested != nil {
		t.Fatal("expected chain to terminate")
	}
}

func TestQueryEncodeSettingsTerminator(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	m := &QueryMsg{
		QueryID:  "q1",
		Settings: map[string]string{},
		Stage:    QueryStageComplete,
		Query:    "SELECT 1",
	}
	if err := m.Encode(w); err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(&buf)
	if _, err := r.VarUint(); err != nil { // tag
		t.Fatal(err)
	}
	if _, err := r.String(); err != nil { // query id
		t.Fatal(err)
	}
	// no ClientInfo was set, so next is the (empty) settings terminator.
	name, err := r.String()
	if err != nil || name != "" {
		t.Fatalf("name=%q err=%v", name, err)
	}
	stage, err := r.VarUint()
	if err != nil || stage != uint64(QueryStageComplete) {
		t.Fatalf("stage=%d err=%v", stage, err)
	}
}

func TestReadServerMessageUnknownTagIsError(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	_ = w.VarUint(99)
	r := wire.NewReader(&buf)
	if _, err := ReadServerMessage(r, false); err == nil {
		t.Fatal("expected error for unknown server packet tag")
	}
}

func TestDataRoundTripUncompressed(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	m := &DataMsg{TableName: "", Block: &block.Block{}}
	if err := EncodeData(w, m, false); err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(&buf)
	if _, err := r.VarUint(); err != nil { // tag
		t.Fatal(err)
	}
	got, err := DecodeData(r, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.TableName != "" || got.Block.NumRows() != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestDataRoundTripCompressed(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	m := &DataMsg{TableName: "t", Block: &block.Block{}}
	if err := EncodeData(w, m, true); err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(&buf)
	if _, err := r.VarUint(); err != nil { // tag
		t.Fatal(err)
	}
	got, err := DecodeData(r, true)
	if err != nil {
		t.Fatal(err)
	}
	if got.TableName != "t" || got.Block.NumRows() != 0 {
		t.Fatalf("got %+v", got)
	}
}
