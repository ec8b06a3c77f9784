package block

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/chxdb/chxdb/types"
	"github.com/chxdb/chxdb/wire"
)

func mustParse(t *testing.T, descriptor string) *types.ColumnType {
	t.Helper()
	ct, err := types.Parse(descriptor)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := &Block{
		Columns: []Column{
			{Name: "id", Type: mustParse(t, "UInt64"), Values: []interface{}{uint64(1), uint64(2)}},
			{Name: "name", Type: mustParse(t, "String"), Values: []interface{}{[]byte("a"), []byte("bb")}},
		},
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := Encode(w, b); err != nil {
		t.Fatal(err)
	}

	r := wire.NewReader(&buf)
	got, err := Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 2 {
		t.Fatalf("got %d rows", got.NumRows())
	}
	if !reflect.DeepEqual(got.Columns[0].Values, b.Columns[0].Values) {
		t.Fatalf("column 0: got %v want %v", got.Columns[0].Values, b.Columns[0].Values)
	}
	if !reflect.DeepEqual(got.Columns[1].Values, b.Columns[1].Values) {
		t.Fatalf("column 1: got %v want %v", got.Columns[1].Values, b.Columns[1].Values)
	}
}

func TestSampleHeaderHasZeroRows(t *testing.T) {
	header := &Block{
		Columns: []Column{
			{Name: "id", Type: mustParse(t, "UInt64"), Values: []interface{}{}},
		},
	}
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := Encode(w, header); err != nil {
		t.Fatal(err)
	}
	r := wire.NewReader(&buf)
	got, err := Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 0 {
		t.Fatalf("got %d rows", got.NumRows())
	}
	if len(got.Columns) != 1 {
		t.Fatalf("got %d columns", len(got.Columns))
	}
}

func TestValidateRejectsMismatchedColumnLengths(t *testing.T) {
	b := &Block{
		Columns: []Column{
			{Name: "a", Type: mustParse(t, "UInt8"), Values: []interface{}{uint64(1)}},
			{Name: "b", Type: mustParse(t, "UInt8"), Values: []interface{}{uint64(1), uint64(2)}},
		},
	}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for mismatched column lengths")
	}
}

func TestValidateRejectsDuplicateColumnNames(t *testing.T) {
	b := &Block{
		Columns: []Column{
			{Name: "a", Type: mustParse(t, "UInt8"), Values: []interface{}{uint64(1)}},
			{Name: "a", Type: mustParse(t, "UInt8"), Values: []interface{}{uint64(2)}},
		},
	}
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for duplicate column names")
	}
}

func TestSameSchema(t *testing.T) {
	header := &Block{Columns: []Column{{Name: "id", Type: mustParse(t, "UInt64")}}}
	match := &Block{Columns: []Column{{Name: "id", Type: mustParse(t, "UInt64"), Values: []interface{}{uint64(1)}}}}
	mismatch := &Block{Columns: []Column{{Name: "id", Type: mustParse(t, "UInt32"), Values: []interface{}{uint64(1)}}}}
	if !header.SameSchema(match) {
		t.Fatal("expected matching schema")
	}
	if header.SameSchema(mismatch) {
		t.Fatal("expected mismatched schema")
	}
}
