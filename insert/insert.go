// Package insert implements the insert input adapter (§4.8): given a
// sample-header Block describing the target schema, it repeatedly draws
// rows from an upstream source and packages them into Blocks matching
// that schema, batch_size rows at a time, terminating with one empty
// Data block. It is grounded on the teacher's WriteBatch path
// (_teachercopy/entryWriter.go), which also drains a slice of upstream
// records into bounded-size wire batches — generalised here from a flat
// entry slice to column-oriented rows coerced against a schema.
package insert

import (
	"strconv"

	"github.com/chxdb/chxdb/block"
	"github.com/chxdb/chxdb/errs"
)

// DefaultBatchSize is the adapter's default row count per Block (§4.8).
const DefaultBatchSize = 8192

// RowSource supplies rows of parameter values to bind into an insert.
// Next returns a single row's values in column order matching the sample
// header, or (nil, false) when exhausted.
type RowSource interface {
	Next() (row []interface{}, ok bool, err error)
}

// Adapter turns a RowSource into successive Blocks matching header's
// schema (§4.8).
type Adapter struct {
	Header    *block.Block
	Source    RowSource
	BatchSize int

	rowIndex int
	done     bool
}

// NewAdapter returns an Adapter with the default batch size.
func NewAdapter(header *block.Block, source RowSource) *Adapter {
	return &Adapter{Header: header, Source: source, BatchSize: DefaultBatchSize}
}

// NextBatch draws up to BatchSize rows from Source and returns a Block
// matching Header's schema. When Source is exhausted it returns the
// empty terminator Block (NumRows()==0) exactly once, and subsequent
// calls return (nil, false) — the caller is done.
func (a *Adapter) NextBatch() (*block.Block, bool, error) {
	if a.done {
		return nil, false, nil
	}
	if a.BatchSize <= 0 {
		a.BatchSize = DefaultBatchSize
	}

	cols := make([][]interface{}, len(a.Header.Columns))
	rows := 0
	for rows < a.BatchSize {
		row, ok, err := a.Source.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}
		if len(row) != len(a.Header.Columns) {
			return nil, false, errs.New(errs.TypeMismatch, "row arity does not match sample header column count")
		}
		for i, hc := range a.Header.Columns {
			v, err := coerce(hc, row[i])
			if err != nil {
				return nil, false, errs.Wrap(errs.TypeMismatch, colRowContext(i, a.rowIndex), err)
			}
			cols[i] = append(cols[i], v)
		}
		rows++
		a.rowIndex++
	}

	if rows == 0 {
		a.done = true
		return emptyBlockLike(a.Header), true, nil
	}

	out := &block.Block{Columns: make([]block.Column, len(a.Header.Columns))}
	for i, hc := range a.Header.Columns {
		out.Columns[i] = block.Column{Name: hc.Name, Type: hc.Type, Values: cols[i]}
	}
	return out, true, nil
}

func coerce(hc block.Column, v interface{}) (interface{}, error) {
	return hc.Type.CoerceValue(v)
}

func emptyBlockLike(header *block.Block) *block.Block {
	out := &block.Block{Columns: make([]block.Column, len(header.Columns))}
	for i, hc := range header.Columns {
		out.Columns[i] = block.Column{Name: hc.Name, Type: hc.Type, Values: []interface{}{}}
	}
	return out
}

func colRowContext(col, row int) string {
	return "column " + strconv.Itoa(col) + " row " + strconv.Itoa(row)
}
