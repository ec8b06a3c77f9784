package types

import (
	"github.com/chxdb/chxdb/errs"
	"github.com/chxdb/chxdb/wire"
)

// Enum8/Enum16 logical values are the member name (string); on the wire
// they are the signed 8/16-bit code from the descriptor's value list.

func (t *ColumnType) enumCodeFor(name string) (int64, error) {
	for i, n := range t.enumNames {
		if n == name {
			return t.enumValues[i], nil
		}
	}
	return 0, errs.New(errs.DomainError, "unknown enum member: "+name)
}

func writeEnum(w *wire.Writer, t *ColumnType, v interface{}) error {
	name, ok := v.(string)
	if !ok {
		return typeMismatch(t, v)
	}
	code, err := t.enumCodeFor(name)
	if err != nil {
		return err
	}
	if t.kind == KindEnum8 {
		return w.I8(int8(code))
	}
	return w.I16(int16(code))
}

func readEnum(r *wire.Reader, t *ColumnType) (interface{}, error) {
	var code int64
	if t.kind == KindEnum8 {
		n, err := r.I8()
		if err != nil {
			return nil, err
		}
		code = int64(n)
	} else {
		n, err := r.I16()
		if err != nil {
			return nil, err
		}
		code = int64(n)
	}
	for i, v := range t.enumValues {
		if v == code {
			return t.enumNames[i], nil
		}
	}
	return nil, errs.New(errs.DomainError, "unknown enum code on wire")
}
