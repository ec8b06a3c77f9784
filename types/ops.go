package types

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/wire"
)

// WriteBinary writes one logical value in the single-value binary form
// (§4.4). Array, Tuple, and Nested have no single-value wire form — they
// only ever travel as bulk column data inside a Block — and return a
// TypeMismatch if asked to.
func (t *ColumnType) WriteBinary(w *wire.Writer, v interface{}) error {
	switch t.kind {
	case KindArray, KindTuple, KindNested:
		return errs.New(errs.TypeMismatch, t.kind.String()+" has no single-value binary form")
	case KindNullable:
		if v == nil {
			return t.elem.WriteBinary(w, t.elem.Default())
		}
		return t.elem.WriteBinary(w, v)
	case KindEnum8, KindEnum16:
		return writeEnum(w, t, v)
	default:
		return writeScalar(w, t, v)
	}
}

// ReadBinary reads one logical value in the single-value binary form.
func (t *ColumnType) ReadBinary(r *wire.Reader) (interface{}, error) {
	switch t.kind {
	case KindArray, KindTuple, KindNested:
		return nil, errs.New(errs.TypeMismatch, t.kind.String()+" has no single-value binary form")
	case KindNullable:
		return t.elem.ReadBinary(r)
	case KindEnum8, KindEnum16:
		return readEnum(r, t)
	default:
		return readScalar(r, t)
	}
}

// WriteBulk writes n logical values in the column-bulk binary form used
// inside Block data (§4.4, §4.5).
func (t *ColumnType) WriteBulk(w *wire.Writer, vals []interface{}) error {
	switch t.kind {
	case KindArray:
		return writeArrayBulk(w, t, vals)
	case KindNullable:
		return writeNullableBulk(w, t, vals)
	case KindTuple:
		return writeTupleBulk(w, t, vals)
	case KindNested:
		return writeNestedBulk(w, t, vals)
	case KindEnum8, KindEnum16:
		for _, v := range vals {
			if err := writeEnum(w, t, v); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, v := range vals {
			if err := writeScalar(w, t, v); err != nil {
				return err
			}
		}
		return nil
	}
}

// ReadBulk reads n logical values in the column-bulk binary form.
func (t *ColumnType) ReadBulk(r *wire.Reader, n int) ([]interface{}, error) {
	switch t.kind {
	case KindArray:
		return readArrayBulk(r, t, n)
	case KindNullable:
		return readNullableBulk(r, t, n)
	case KindTuple:
		return readTupleBulk(r, t, n)
	case KindNested:
		return readNestedBulk(r, t, n)
	case KindEnum8, KindEnum16:
		out := make([]interface{}, n)
		for i := range out {
			v, err := readEnum(r, t)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		out := make([]interface{}, n)
		for i := range out {
			v, err := readScalar(r, t)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}
