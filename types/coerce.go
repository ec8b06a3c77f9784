package types

import "github.com/chxdb/chxdb/errs"

// CoerceValue accepts a Go value in any of the shapes this package's
// read paths already produce or a caller might reasonably supply (e.g.
// a plain "int" or "string" instead of the exact logical-value type) and
// returns it in the canonical shape WriteBinary/WriteBulk expect for t.
// Used by the insert adapter (§4.8) to bind loosely-typed upstream rows
// against a sample header's declared column types.
func (t *ColumnType) CoerceValue(v interface{}) (interface{}, error) {
	if t.kind == KindNullable {
		if v == nil {
			return nil, nil
		}
		return t.elem.CoerceValue(v)
	}
	if v == nil {
		return nil, errs.New(errs.TypeMismatch, "nil is not valid for non-Nullable "+t.Name())
	}

	switch t.kind {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return coerceUint(v, t)
	case KindInt8, KindInt16, KindInt32, KindInt64, KindDate, KindDateTime:
		return coerceInt(v, t)
	case KindFloat32, KindFloat64:
		return coerceFloat(v, t)
	case KindString, KindFixedString:
		return coerceBytes(v, t)
	case KindUUID:
		if b, ok := v.([16]byte); ok {
			return b, nil
		}
		if s, ok := v.(string); ok {
			return parseUUIDText(s)
		}
		return nil, typeMismatch(t, v)
	case KindEnum8, KindEnum16:
		s, ok := v.(string)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		if _, err := t.enumCodeFor(s); err != nil {
			return nil, err
		}
		return s, nil
	case KindArray:
		elems, ok := v.([]interface{})
		if !ok {
			return nil, typeMismatch(t, v)
		}
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			c, err := t.elem.CoerceValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case KindTuple:
		return coerceTupleRow(t, v)
	case KindNested:
		rows, ok := v.([]interface{})
		if !ok {
			return nil, typeMismatch(t, v)
		}
		out := make([]interface{}, len(rows))
		for i, row := range rows {
			c, err := coerceTupleRow(t, row)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	default:
		return nil, errs.New(errs.TypeMismatch, "cannot coerce value for "+t.kind.String())
	}
}

// coerceTupleRow coerces one positional tuple value ([]interface{} of
// arity len(t.fields)) against t's member types. Used directly for
// Tuple, and per-row for Nested's array-of-tuples value (§4.3).
func coerceTupleRow(t *ColumnType, v interface{}) (interface{}, error) {
	elems, ok := v.([]interface{})
	if !ok || len(elems) != len(t.fields) {
		return nil, errs.New(errs.TypeMismatch, "tuple value has wrong arity for "+t.Name())
	}
	out := make([]interface{}, len(elems))
	for i, f := range t.fields {
		c, err := f.Type.CoerceValue(elems[i])
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func coerceUint(v interface{}, t *ColumnType) (interface{}, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case int:
		if n < 0 {
			return nil, typeMismatch(t, v)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return nil, typeMismatch(t, v)
		}
		return uint64(n), nil
	default:
		return nil, typeMismatch(t, v)
	}
}

func coerceInt(v interface{}, t *ColumnType) (interface{}, error) {
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
		return nil, typeMismatch(t, v)
	}
}

func coerceFloat(v interface{}, t *ColumnType) (interface{}, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case int:
		return float64(f), nil
	default:
		return nil, typeMismatch(t, v)
	}
}

func coerceBytes(v interface{}, t *ColumnType) (interface{}, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, typeMismatch(t, v)
	}
}
