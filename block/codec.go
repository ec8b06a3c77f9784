package block

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/types"
	"github.com/chxdb/chxdb/wire"
)

const (
	blockInfoFieldOverflows uint64 = 1
	blockInfoFieldBucketNum uint64 = 2
)

// Encode writes one Block in the §4.5 wire layout: table name, BlockInfo
// tag sequence, column count, row count, then each column's name, type
// descriptor string, and bulk value data.
func Encode(w *wire.Writer, b *Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := w.String(b.TableName); err != nil {
		return err
	}
	if err := writeBlockInfo(w, b); err != nil {
		return err
	}
	if err := w.VarUint(uint64(len(b.Columns))); err != nil {
		return err
	}
	n := uint64(b.NumRows())
	if err := w.VarUint(n); err != nil {
		return err
	}
	for _, c := range b.Columns {
		if err := w.String(c.Name); err != nil {
			return err
		}
		if err := w.String(c.Type.Name()); err != nil {
			return err
		}
		if err := c.Type.WriteBulk(w, c.Values); err != nil {
			return err
		}
	}
	return nil
}

func writeBlockInfo(w *wire.Writer, b *Block) error {
	if err := w.VarUint(blockInfoFieldOverflows); err != nil {
		return err
	}
	overflows := uint8(0)
	if b.IsOverflows {
		overflows = 1
	}
	if err := w.U8(overflows); err != nil {
		return err
	}
	if err := w.VarUint(blockInfoFieldBucketNum); err != nil {
		return err
	}
	if err := w.I32(b.BucketNum); err != nil {
		return err
	}
	return w.VarUint(0) // terminator
}

// Decode reads one Block in the §4.5 wire layout, parsing each column's
// type descriptor through the type registry.
func Decode(r *wire.Reader) (*Block, error) {
	tableName, err := r.String()
	if err != nil {
		return nil, err
	}
	b := &Block{TableName: tableName}
	if err := readBlockInfo(r, b); err != nil {
		return nil, err
	}
	numColumns, err := r.VarUint()
	if err != nil {
		return nil, err
	}
	numRows, err := r.VarUint()
	if err != nil {
		return nil, err
	}
	b.Columns = make([]Column, numColumns)
	for i := range b.Columns {
		name, err := r.String()
		if err != nil {
			return nil, err
		}
		descriptor, err := r.String()
		if err != nil {
			return nil, err
		}
		ct, err := types.Parse(descriptor)
		if err != nil {
			return nil, err
		}
		vals, err := ct.ReadBulk(r, int(numRows))
		if err != nil {
			return nil, err
		}
		b.Columns[i] = Column{Name: name, Type: ct, Values: vals}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func readBlockInfo(r *wire.Reader, b *Block) error {
	for {
		field, err := r.VarUint()
		if err != nil {
			return err
		}
		if field == 0 {
			return nil
		}
		switch field {
		case blockInfoFieldOverflows:
			v, err := r.U8()
			if err != nil {
				return err
			}
			b.IsOverflows = v != 0
		case blockInfoFieldBucketNum:
			v, err := r.I32()
			if err != nil {
				return err
			}
			b.BucketNum = v
		default:
			return errs.New(errs.MalformedFrame, "unknown BlockInfo field number")
		}
	}
}
