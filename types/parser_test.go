package types

import "testing"

func freshRegistry() *registry { return newRegistry() }

func TestParseScalarTypes(t *testing.T) {
	reg := freshRegistry()
	for _, name := range []string{"UInt8", "Int64", "Float64", "String", "Date", "UUID", "DateTime"} {
		got, err := reg.parse(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if got.Name() != name {
			t.Fatalf("parse %q: canonical name %q", name, got.Name())
		}
	}
}

func TestParseFixedString(t *testing.T) {
	reg := freshRegistry()
	got, err := reg.parse("FixedString(16)")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindFixedString || got.FixedLen() != 16 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseNestedArrayNullable(t *testing.T) {
	reg := freshRegistry()
	got, err := reg.parse("Array(Nullable(FixedString(3)))")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindArray {
		t.Fatal("expected Array at top")
	}
	inner := got.Elem()
	if inner.Kind() != KindNullable {
		t.Fatal("expected Nullable inside Array")
	}
	innerMost := inner.Elem()
	if innerMost.Kind() != KindFixedString || innerMost.FixedLen() != 3 {
		t.Fatalf("got %+v", innerMost)
	}
}

func TestParseNullableRejectsArray(t *testing.T) {
	reg := freshRegistry()
	if _, err := reg.parse("Nullable(Array(UInt8))"); err == nil {
		t.Fatal("expected error for Nullable(Array(...))")
	}
}

func TestParseEnum8(t *testing.T) {
	reg := freshRegistry()
	got, err := reg.parse("Enum8('a' = 1, 'b' = 2)")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindEnum8 {
		t.Fatal("expected Enum8")
	}
	code, err := got.enumCodeFor("b")
	if err != nil || code != 2 {
		t.Fatalf("got code=%d err=%v", code, err)
	}
}

func TestParseEnumNegativeValue(t *testing.T) {
	reg := freshRegistry()
	got, err := reg.parse("Enum8('neg' = -1)")
	if err != nil {
		t.Fatal(err)
	}
	code, err := got.enumCodeFor("neg")
	if err != nil || code != -1 {
		t.Fatalf("got code=%d err=%v", code, err)
	}
}

func TestParseTupleGeneratesPositionalNames(t *testing.T) {
	reg := freshRegistry()
	got, err := reg.parse("Tuple(UInt8, String)")
	if err != nil {
		t.Fatal(err)
	}
	fields := got.Fields()
	if len(fields) != 2 || fields[0].Name != "_1" || fields[1].Name != "_2" {
		t.Fatalf("got %+v", fields)
	}
}

func TestParseNested(t *testing.T) {
	reg := freshRegistry()
	got, err := reg.parse("Nested(key String, value UInt64)")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindNested {
		t.Fatal("expected Nested")
	}
	fields := got.Fields()
	if len(fields) != 2 || fields[0].Name != "key" || fields[1].Name != "value" {
		t.Fatalf("got %+v", fields)
	}
}

func TestParseInterningReturnsSameInstance(t *testing.T) {
	reg := freshRegistry()
	a, err := reg.parse("Array(UInt8)")
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.parse("Array(UInt8)")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected interned instances to be identical")
	}
}

func TestParseUnknownTypeIsError(t *testing.T) {
	reg := freshRegistry()
	if _, err := reg.parse("NotARealType"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestParseTrailingGarbageIsError(t *testing.T) {
	reg := freshRegistry()
	if _, err := reg.parse("UInt8 garbage"); err == nil {
		t.Fatal("expected error for trailing tokens")
	}
}
