package wire

import (
	"bytes"
	"math"
	"testing"
)

func TestFixedWidthRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.U8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.I8(-5); err != nil {
		t.Fatal(err)
	}
	if err := w.U16(0xBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.I32(-123456); err != nil {
		t.Fatal(err)
	}
	if err := w.U64(0xdeadbeefcafef00d); err != nil {
		t.Fatal(err)
	}
	if err := w.F32(3.5); err != nil {
		t.Fatal(err)
	}
	if err := w.F64(math.Pi); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf)
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 round trip failed: %v %v", v, err)
	}
	if v, err := r.I8(); err != nil || v != -5 {
		t.Fatalf("I8 round trip failed: %v %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0xBEEF {
		t.Fatalf("U16 round trip failed: %v %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -123456 {
		t.Fatalf("I32 round trip failed: %v %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0xdeadbeefcafef00d {
		t.Fatalf("U64 round trip failed: %v %v", v, err)
	}
	if v, err := r.F32(); err != nil || v != 3.5 {
		t.Fatalf("F32 round trip failed: %v %v", v, err)
	}
	if v, err := r.F64(); err != nil || v != math.Pi {
		t.Fatalf("F64 round trip failed: %v %v", v, err)
	}
}

func TestVarUintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 32, math.MaxUint64}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, c := range cases {
		if err := w.VarUint(c); err != nil {
			t.Fatal(err)
		}
	}
	r := NewReader(&buf)
	for _, want := range cases {
		got, err := r.VarUint()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("varuint round trip: got %d want %d", got, want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := "SELECT 1"
	if err := w.String(want); err != nil {
		t.Fatal(err)
	}
	r := NewReader(&buf)
	got, err := r.String()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("string round trip: got %q want %q", got, want)
	}
}

func TestFixedStringPadding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.FixedString([]byte("abc"), 4); err != nil {
		t.Fatal(err)
	}
	r := NewReader(&buf)
	got, err := r.FixedString(4)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("abc\x00")
	if !bytes.Equal(got, want) {
		t.Fatalf("fixed string round trip: got %q want %q", got, want)
	}
}

func TestShortReadIsMalformedFrame(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01}))
	if _, err := r.U32(); err == nil {
		t.Fatal("expected error on short read")
	}
}
