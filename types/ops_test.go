package types

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/chxdb/chxdb/wire"
)

func TestWriteReadBinaryScalarRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Int32")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBinary(w, int64(-42)); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := ty.ReadBinary(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.(int64) != -42 {
		t.Fatalf("got %v", got)
	}
}

func TestArrayBulkRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Array(UInt8)")
	if err != nil {
		t.Fatal(err)
	}
	vals := []interface{}{
		[]interface{}{uint64(1), uint64(2), uint64(3)},
		[]interface{}{},
		[]interface{}{uint64(4)},
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBulk(w, vals); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := ty.ReadBulk(r, len(vals))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, vals) {
		t.Fatalf("got %v want %v", got, vals)
	}
}

func TestNullableBulkRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Nullable(UInt32)")
	if err != nil {
		t.Fatal(err)
	}
	vals := []interface{}{uint64(7), nil, uint64(9)}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBulk(w, vals); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := ty.ReadBulk(r, len(vals))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].(uint64) != 7 || got[1] != nil || got[2].(uint64) != 9 {
		t.Fatalf("got %v", got)
	}
}

func TestTupleBulkRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Tuple(UInt8, String)")
	if err != nil {
		t.Fatal(err)
	}
	vals := []interface{}{
		[]interface{}{uint64(1), []byte("a")},
		[]interface{}{uint64(2), []byte("bb")},
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBulk(w, vals); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := ty.ReadBulk(r, len(vals))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, vals) {
		t.Fatalf("got %v want %v", got, vals)
	}
}

func TestEnumBulkRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Enum8('a' = 1, 'b' = 2)")
	if err != nil {
		t.Fatal(err)
	}
	vals := []interface{}{"a", "b", "a"}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBulk(w, vals); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := ty.ReadBulk(r, len(vals))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, vals) {
		t.Fatalf("got %v want %v", got, vals)
	}
}

func TestUUIDBinaryRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("UUID")
	if err != nil {
		t.Fatal(err)
	}
	u := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBinary(w, u); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 16 {
		t.Fatalf("expected 16 bytes on the wire, got %d", buf.Len())
	}
	// §4.4: two u64 LE halves (high, low) — the high half's bytes appear
	// byte-swapped relative to the raw [16]byte value, not verbatim.
	r := wire.NewReader(&buf)
	got, err := ty.ReadBinary(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.([16]byte) != u {
		t.Fatalf("got %v want %v", got, u)
	}
}

func TestNestedBulkRoundTrip(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Nested(a UInt8, b String)")
	if err != nil {
		t.Fatal(err)
	}
	vals := []interface{}{
		[]interface{}{
			[]interface{}{uint64(1), []byte("x")},
			[]interface{}{uint64(2), []byte("y")},
		},
		[]interface{}{},
		[]interface{}{
			[]interface{}{uint64(3), []byte("z")},
		},
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBulk(w, vals); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := ty.ReadBulk(r, len(vals))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, vals) {
		t.Fatalf("got %v want %v", got, vals)
	}
}

func TestArrayBulkDecreasingOffsetIsMalformed(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Array(UInt8)")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	_ = w.U64(5) // row 0: offset 5
	_ = w.U64(2) // row 1: offset 2, decreasing
	r := wire.NewReader(&buf)
	if _, err := ty.ReadBulk(r, 2); err == nil {
		t.Fatal("expected error for decreasing array offset")
	}
}

func TestArrayHasNoSingleValueForm(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Array(UInt8)")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := ty.WriteBinary(w, []interface{}{uint64(1)}); err == nil {
		t.Fatal("expected error writing Array as single value")
	}
}

func TestParseTextLiterals(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Nullable(UInt32)")
	if err != nil {
		t.Fatal(err)
	}
	got, err := ty.ParseText(Token{Kind: TokIdentifier, Text: "NULL"})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %v", got)
	}
	got, err = ty.ParseText(Token{Kind: TokNumber, Text: "42"})
	if err != nil {
		t.Fatal(err)
	}
	if got.(uint64) != 42 {
		t.Fatalf("got %v", got)
	}
}

func TestParseTextFloatDecimalLiteral(t *testing.T) {
	reg := freshRegistry()
	ty, err := reg.parse("Float64")
	if err != nil {
		t.Fatal(err)
	}
	l := NewLexer("3.14")
	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ty.ParseText(tok)
	if err != nil {
		t.Fatal(err)
	}
	if got.(float64) != 3.14 {
		t.Fatalf("got %v", got)
	}
}
