package types

import (
	"strconv"

	"github.com/chxdb/chxdb/errs"
)

// ParseText converts a literal token from a SQL statement (a quoted
// string, a bare number, or the identifier NULL) into the logical value
// this column type expects when substituting query parameters into
// statement text (§4.4's text-quoted path; used for parameter binding,
// never for Block column data).
func (t *ColumnType) ParseText(tok Token) (interface{}, error) {
	if tok.Kind == TokIdentifier && tok.Text == "NULL" {
		if t.kind != KindNullable {
			return nil, errs.New(errs.TypeMismatch, "NULL is not valid for "+t.Name())
		}
		return nil, nil
	}
	if t.kind == KindNullable {
		return t.elem.ParseText(tok)
	}

	switch t.kind {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		if tok.Kind != TokNumber {
			return nil, errs.New(errs.TypeMismatch, "expected unsigned integer literal for "+t.Name())
		}
		n, err := strconv.ParseUint(tok.Text, 10, 64)
		if err != nil {
			return nil, errs.Wrap(errs.TypeMismatch, "parse unsigned integer literal", err)
		}
		return n, nil
	case KindInt8, KindInt16, KindInt32, KindInt64, KindDate, KindDateTime:
		if tok.Kind != TokNumber {
			return nil, errs.New(errs.TypeMismatch, "expected integer literal for "+t.Name())
		}
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, errs.Wrap(errs.TypeMismatch, "parse integer literal", err)
		}
		return n, nil
	case KindFloat32, KindFloat64:
		if tok.Kind != TokNumber {
			return nil, errs.New(errs.TypeMismatch, "expected numeric literal for "+t.Name())
		}
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, errs.Wrap(errs.TypeMismatch, "parse float literal", err)
		}
		return f, nil
	case KindString, KindFixedString:
		if tok.Kind != TokStringLiteral {
			return nil, errs.New(errs.TypeMismatch, "expected string literal for "+t.Name())
		}
		return []byte(tok.Text), nil
	case KindUUID:
		if tok.Kind != TokStringLiteral {
			return nil, errs.New(errs.TypeMismatch, "expected string literal for UUID")
		}
		return parseUUIDText(tok.Text)
	case KindEnum8, KindEnum16:
		if tok.Kind != TokStringLiteral {
			return nil, errs.New(errs.TypeMismatch, "expected string literal for "+t.Name())
		}
		if _, err := t.enumCodeFor(tok.Text); err != nil {
			return nil, err
		}
		return tok.Text, nil
	default:
		return nil, errs.New(errs.TypeMismatch, t.kind.String()+" cannot be bound from statement text")
	}
}
