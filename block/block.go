// Package block implements the columnar Block model and its wire codec
// (§4 "Block model", §4.5): an ordered sequence of named, typed columns
// sharing one row count, matching the teacher's own framing of an Entry
// as a self-describing, independently transportable unit
// (_teachercopy/entry/entry.go) — here widened from one tagged value per
// record to a whole column per field, batched across many rows.
package block

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/types"
)

// Row is one record's worth of logical values in column order, the unit
// a RowSource yields for the insert input adapter (§4.8).
type Row = []interface{}

// Column is one named, typed vector of logical values, one per row in
// its owning Block.
type Column struct {
	Name   string
	Type   *types.ColumnType
	Values []interface{}
}

// Block is a column-oriented batch of rows plus the overflow/bucket
// metadata every Data packet carries (§4.5's BlockInfo). A Block with
// zero rows but a populated column list is a "sample header" — the
// schema a query or insert will use, before any row arrives.
type Block struct {
	TableName    string
	IsOverflows  bool
	BucketNum    int32
	Columns      []Column
}

// NumRows returns the block's row count, i.e. the length of every
// column's value vector (they are required to agree, see Validate).
func (b *Block) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0].Values)
}

// Validate enforces the Block invariants (§3): every column has the same
// length, and column names are unique within the block.
func (b *Block) Validate() error {
	seen := make(map[string]struct{}, len(b.Columns))
	n := b.NumRows()
	for _, c := range b.Columns {
		if _, dup := seen[c.Name]; dup {
			return errs.New(errs.ProtocolViolation, "duplicate column name in block: "+c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Values) != n {
			return errs.New(errs.ProtocolViolation, "column "+c.Name+" has mismatched row count")
		}
	}
	return nil
}

// ColumnByName returns the column with the given name, or nil if absent.
func (b *Block) ColumnByName(name string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i]
		}
	}
	return nil
}

// SameSchema reports whether b and other declare the same column names
// and types in the same order — the check an insert input adapter makes
// before building a data block against a sample header.
func (b *Block) SameSchema(other *Block) bool {
	if len(b.Columns) != len(other.Columns) {
		return false
	}
	for i := range b.Columns {
		if b.Columns[i].Name != other.Columns[i].Name {
			return false
		}
		if b.Columns[i].Type.Name() != other.Columns[i].Type.Name() {
			return false
		}
	}
	return true
}
