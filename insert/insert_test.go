package insert

import (
	"testing"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/types"
)

type sliceSource struct {
	rows [][]interface{}
	pos  int
}

func (s *sliceSource) Next() ([]interface{}, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

func mustParse(t *testing.T, descriptor string) *types.ColumnType {
	t.Helper()
	ct, err := types.Parse(descriptor)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func header(t *testing.T) *block.Block {
	return &block.Block{Columns: []block.Column{
		{Name: "id", Type: mustParse(t, "UInt64")},
		{Name: "name", Type: mustParse(t, "String")},
	}}
}

func TestAdapterBatchesRows(t *testing.T) {
	src := &sliceSource{rows: [][]interface{}{
		{1, "a"},
		{2, "b"},
		{3, "c"},
	}}
	a := NewAdapter(header(t), src)
	a.BatchSize = 2

	b1, more, err := a.NextBatch()
	if err != nil || !more {
		t.Fatalf("batch1: %v %v", more, err)
	}
	if b1.NumRows() != 2 {
		t.Fatalf("batch1 rows=%d", b1.NumRows())
	}

	b2, more, err := a.NextBatch()
	if err != nil || !more {
		t.Fatalf("batch2: %v %v", more, err)
	}
	if b2.NumRows() != 1 {
		t.Fatalf("batch2 rows=%d", b2.NumRows())
	}

	term, more, err := a.NextBatch()
	if err != nil || !more {
		t.Fatalf("terminator: %v %v", more, err)
	}
	if term.NumRows() != 0 {
		t.Fatalf("expected empty terminator block, got %d rows", term.NumRows())
	}

	_, more, err = a.NextBatch()
	if err != nil || more {
		t.Fatal("expected adapter to be done after terminator")
	}
}

func TestAdapterCoercesRowValues(t *testing.T) {
	src := &sliceSource{rows: [][]interface{}{{7, "hello"}}}
	a := NewAdapter(header(t), src)
	b, more, err := a.NextBatch()
	if err != nil || !more {
		t.Fatalf("%v %v", more, err)
	}
	if b.Columns[0].Values[0].(uint64) != 7 {
		t.Fatalf("got %v", b.Columns[0].Values[0])
	}
	if string(b.Columns[1].Values[0].([]byte)) != "hello" {
		t.Fatalf("got %v", b.Columns[1].Values[0])
	}
}

func TestAdapterRowArityMismatchIsError(t *testing.T) {
	src := &sliceSource{rows: [][]interface{}{{1}}}
	a := NewAdapter(header(t), src)
	if _, _, err := a.NextBatch(); err == nil {
		t.Fatal("expected error for row arity mismatch")
	}
}
