package types

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/wire"
)

// Array's bulk layout is one block-wide offsets array (cumulative row
// element counts, UInt64) followed by the flattened element bulk data
// (§4.4). Array has no single-value wire form; it only ever appears as
// a bulk column inside a Block.

func writeArrayBulk(w *wire.Writer, t *ColumnType, vals []interface{}) error {
	offsets := make([]uint64, len(vals))
	var flat []interface{}
	var cum uint64
	for i, v := range vals {
		elems, ok := v.([]interface{})
		if !ok {
			return typeMismatch(t, v)
		}
		cum += uint64(len(elems))
		offsets[i] = cum
		flat = append(flat, elems...)
	}
	for _, off := range offsets {
		if err := w.U64(off); err != nil {
			return err
		}
	}
	return t.elem.WriteBulk(w, flat)
}

func readArrayBulk(r *wire.Reader, t *ColumnType, n int) ([]interface{}, error) {
	offsets, total, err := readOffsets(r, n)
	if err != nil {
		return nil, err
	}
	flat, err := t.elem.ReadBulk(r, total)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	var prev uint64
	for i, off := range offsets {
		out[i] = flat[int(prev):int(off)]
		prev = off
	}
	return out, nil
}

// readOffsets reads n cumulative UInt64 offsets and returns them along
// with the total element count they imply. Offsets must be
// non-decreasing (§8 invariant 4); a server that sends a decreasing
// offset is a malformed frame, not a slice-bounds panic.
func readOffsets(r *wire.Reader, n int) ([]uint64, int, error) {
	offsets := make([]uint64, n)
	var prev uint64
	for i := range offsets {
		off, err := r.U64()
		if err != nil {
			return nil, 0, err
		}
		if off < prev {
			return nil, 0, errs.New(errs.MalformedFrame, "decreasing array offset")
		}
		offsets[i] = off
		prev = off
	}
	total := 0
	if n > 0 {
		total = int(offsets[n-1])
	}
	return offsets, total, nil
}

// Nullable's bulk layout is a null-mask byte per row (0 or 1) followed by
// the inner bulk data — including a default value in place of every null
// slot, since the inner column is still fully populated on the wire.

func writeNullableBulk(w *wire.Writer, t *ColumnType, vals []interface{}) error {
	mask := make([]byte, len(vals))
	inner := make([]interface{}, len(vals))
	for i, v := range vals {
		if v == nil {
			mask[i] = 1
			inner[i] = t.elem.Default()
		} else {
			inner[i] = v
		}
	}
	for _, m := range mask {
		if err := w.U8(m); err != nil {
			return err
		}
	}
	return t.elem.WriteBulk(w, inner)
}

func readNullableBulk(r *wire.Reader, t *ColumnType, n int) ([]interface{}, error) {
	mask := make([]byte, n)
	for i := range mask {
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		mask[i] = b
	}
	inner, err := t.elem.ReadBulk(r, n)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i, v := range inner {
		if mask[i] != 0 {
			out[i] = nil
		} else {
			out[i] = v
		}
	}
	return out, nil
}

// Nested's bulk layout is the same as Array(Tuple(...)): one block-wide
// offsets array of per-row element counts, followed by the flattened
// inner Tuple bulk for the total row count the offsets imply (§4.3,
// §4.4). A Nested logical value is therefore an array of positional
// tuples per row, not a single tuple per row.

func writeNestedBulk(w *wire.Writer, t *ColumnType, vals []interface{}) error {
	offsets := make([]uint64, len(vals))
	var flat []interface{}
	var cum uint64
	for i, v := range vals {
		rows, ok := v.([]interface{})
		if !ok {
			return typeMismatch(t, v)
		}
		cum += uint64(len(rows))
		offsets[i] = cum
		flat = append(flat, rows...)
	}
	for _, off := range offsets {
		if err := w.U64(off); err != nil {
			return err
		}
	}
	return writeTupleBulk(w, nestedTupleType(t), flat)
}

func readNestedBulk(r *wire.Reader, t *ColumnType, n int) ([]interface{}, error) {
	offsets, total, err := readOffsets(r, n)
	if err != nil {
		return nil, err
	}
	flat, err := readTupleBulk(r, nestedTupleType(t), total)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	var prev uint64
	for i, off := range offsets {
		out[i] = flat[int(prev):int(off)]
		prev = off
	}
	return out, nil
}

// nestedTupleType views a Nested ColumnType's member fields as a Tuple,
// so the per-row bulk layout can reuse writeTupleBulk/readTupleBulk
// directly.
func nestedTupleType(t *ColumnType) *ColumnType {
	return &ColumnType{kind: KindTuple, fields: t.fields}
}

// Tuple's bulk layout is each member's bulk column data written
// consecutively in field order (§4.4).

func writeTupleBulk(w *wire.Writer, t *ColumnType, vals []interface{}) error {
	cols := make([][]interface{}, len(t.fields))
	for i := range cols {
		cols[i] = make([]interface{}, len(vals))
	}
	for row, v := range vals {
		tuple, ok := v.([]interface{})
		if !ok || len(tuple) != len(t.fields) {
			return errs.New(errs.TypeMismatch, "tuple value has wrong arity for "+t.Name())
		}
		for i := range t.fields {
			cols[i][row] = tuple[i]
		}
	}
	for i, f := range t.fields {
		if err := f.Type.WriteBulk(w, cols[i]); err != nil {
			return err
		}
	}
	return nil
}

func readTupleBulk(r *wire.Reader, t *ColumnType, n int) ([]interface{}, error) {
	cols := make([][]interface{}, len(t.fields))
	for i, f := range t.fields {
		col, err := f.Type.ReadBulk(r, n)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	out := make([]interface{}, n)
	for row := 0; row < n; row++ {
		tuple := make([]interface{}, len(t.fields))
		for i := range t.fields {
			tuple[i] = cols[i][row]
		}
		out[row] = tuple
	}
	return out, nil
}
