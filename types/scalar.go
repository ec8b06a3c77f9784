package types

import (
	"encoding/binary"

	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/wire"
)

func writeScalar(w *wire.Writer, t *ColumnType, v interface{}) error {
	switch t.kind {
	case KindUInt8:
		n, err := toUint(v, t)
		if err != nil {
			return err
		}
		return w.U8(uint8(n))
	case KindInt8:
		n, err := toInt(v, t)
		if err != nil {
			return err
		}
		return w.I8(int8(n))
	case KindUInt16:
		n, err := toUint(v, t)
		if err != nil {
			return err
		}
		return w.U16(uint16(n))
	case KindInt16:
		n, err := toInt(v, t)
		if err != nil {
			return err
		}
		return w.I16(int16(n))
	case KindUInt32:
		n, err := toUint(v, t)
		if err != nil {
			return err
		}
		return w.U32(uint32(n))
	case KindInt32:
		n, err := toInt(v, t)
		if err != nil {
			return err
		}
		return w.I32(int32(n))
	case KindUInt64:
		n, err := toUint(v, t)
		if err != nil {
			return err
		}
		return w.U64(n)
	case KindInt64:
		n, err := toInt(v, t)
		if err != nil {
			return err
		}
		return w.I64(n)
	case KindFloat32:
		f, ok := v.(float32)
		if !ok {
			f64, ok2 := v.(float64)
			if !ok2 {
				return typeMismatch(t, v)
			}
			f = float32(f64)
		}
		return w.F32(f)
	case KindFloat64:
		f, err := toFloat(v, t)
		if err != nil {
			return err
		}
		return w.F64(f)
	case KindString:
		b, err := toBytes(v, t)
		if err != nil {
			return err
		}
		return w.String(string(b))
	case KindFixedString:
		b, err := toBytes(v, t)
		if err != nil {
			return err
		}
		if len(b) > t.fixedLen {
			return errs.New(errs.DomainError, "FixedString value longer than declared length")
		}
		return w.FixedString(b, t.fixedLen)
	case KindDate:
		n, err := toUint(v, t)
		if err != nil {
			return err
		}
		return w.U16(uint16(n))
	case KindDateTime:
		n, err := toUint(v, t)
		if err != nil {
			return err
		}
		return w.U32(uint32(n))
	case KindUUID:
		u, ok := v.([16]byte)
		if !ok {
			return typeMismatch(t, v)
		}
		// §4.4: two u64 LE halves (high, low) rather than the raw
		// RFC4122 byte order.
		if err := w.U64(binary.BigEndian.Uint64(u[0:8])); err != nil {
			return err
		}
		return w.U64(binary.BigEndian.Uint64(u[8:16]))
	default:
		return errs.New(errs.TypeMismatch, "writeScalar called on non-scalar kind "+t.kind.String())
	}
}

func readScalar(r *wire.Reader, t *ColumnType) (interface{}, error) {
	switch t.kind {
	case KindUInt8:
		n, err := r.U8()
		return uint64(n), err
	case KindInt8:
		n, err := r.I8()
		return int64(n), err
	case KindUInt16:
		n, err := r.U16()
		return uint64(n), err
	case KindInt16:
		n, err := r.I16()
		return int64(n), err
	case KindUInt32:
		n, err := r.U32()
		return uint64(n), err
	case KindInt32:
		n, err := r.I32()
		return int64(n), err
	case KindUInt64:
		n, err := r.U64()
		return n, err
	case KindInt64:
		n, err := r.I64()
		return n, err
	case KindFloat32:
		f, err := r.F32()
		return f, err
	case KindFloat64:
		f, err := r.F64()
		return f, err
	case KindString:
		s, err := r.String()
		return []byte(s), err
	case KindFixedString:
		return r.FixedString(t.fixedLen)
	case KindDate:
		n, err := r.U16()
		return int64(n), err
	case KindDateTime:
		n, err := r.U32()
		return int64(n), err
	case KindUUID:
		hi, err := r.U64()
		if err != nil {
			return nil, err
		}
		lo, err := r.U64()
		if err != nil {
			return nil, err
		}
		var u [16]byte
		binary.BigEndian.PutUint64(u[0:8], hi)
		binary.BigEndian.PutUint64(u[8:16], lo)
		return u, nil
	default:
		return nil, errs.New(errs.TypeMismatch, "readScalar called on non-scalar kind "+t.kind.String())
	}
}

func toUint(v interface{}, t *ColumnType) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, typeMismatch(t, v)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, typeMismatch(t, v)
		}
		return uint64(n), nil
	default:
		return 0, typeMismatch(t, v)
	}
}

func toInt(v interface{}, t *ColumnType) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, typeMismatch(t, v)
	}
}

func toFloat(v interface{}, t *ColumnType) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	default:
		return 0, typeMismatch(t, v)
	}
}

func toBytes(v interface{}, t *ColumnType) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, typeMismatch(t, v)
	}
}

func typeMismatch(t *ColumnType, v interface{}) error {
	return errs.New(errs.TypeMismatch, "value of Go type does not fit column type "+t.Name())
}
