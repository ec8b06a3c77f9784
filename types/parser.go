package types

import (
	"strconv"

	"github.com/chxdb/chxdb/errs"
)

// parser is a recursive-descent parser over a Lexer's token stream,
// consuming one type descriptor and producing a ColumnType tree (§4.3).
type parser struct {
	lex  *Lexer
	tok  Token
	intern map[string]*ColumnType
}

func newParser(s string, intern map[string]*ColumnType) (*parser, error) {
	p := &parser{lex: NewLexer(s), intern: intern}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(k TokenKind) (Token, error) {
	if p.tok.Kind != k {
		return Token{}, errs.New(errs.UnknownType, "unexpected token in type descriptor: "+p.tok.Text)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// parseType parses exactly one top-level type descriptor and requires
// the token stream to be exhausted afterward — a trailing comma or
// bracket is a malformed descriptor, not silently ignored.
func (p *parser) parseType() (*ColumnType, error) {
	t, err := p.parseOne()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokEOF {
		return nil, errs.New(errs.UnknownType, "trailing tokens after type descriptor: "+p.tok.Text)
	}
	return t, nil
}

func (p *parser) parseOne() (*ColumnType, error) {
	id, err := p.expect(TokIdentifier)
	if err != nil {
		return nil, err
	}
	name := id.Text

	switch name {
	case "UInt8":
		return internScalar(p.intern, KindUInt8, name), nil
	case "Int8":
		return internScalar(p.intern, KindInt8, name), nil
	case "UInt16":
		return internScalar(p.intern, KindUInt16, name), nil
	case "Int16":
		return internScalar(p.intern, KindInt16, name), nil
	case "UInt32":
		return internScalar(p.intern, KindUInt32, name), nil
	case "Int32":
		return internScalar(p.intern, KindInt32, name), nil
	case "UInt64":
		return internScalar(p.intern, KindUInt64, name), nil
	case "Int64":
		return internScalar(p.intern, KindInt64, name), nil
	case "Float32":
		return internScalar(p.intern, KindFloat32, name), nil
	case "Float64":
		return internScalar(p.intern, KindFloat64, name), nil
	case "String":
		return internScalar(p.intern, KindString, name), nil
	case "Date":
		return internScalar(p.intern, KindDate, name), nil
	case "UUID":
		return internScalar(p.intern, KindUUID, name), nil
	case "FixedString":
		return p.parseFixedString()
	case "DateTime":
		return p.parseDateTime()
	case "Enum8":
		return p.parseEnum(KindEnum8, 1<<7, (1<<7)-1)
	case "Enum16":
		return p.parseEnum(KindEnum16, 1<<15, (1<<15)-1)
	case "Array":
		return p.parseArray()
	case "Nullable":
		return p.parseNullable()
	case "Tuple":
		return p.parseTuple()
	case "Nested":
		return p.parseNested()
	default:
		return nil, errs.New(errs.UnknownType, "unknown type: "+name)
	}
}

func (p *parser) parseFixedString() (*ColumnType, error) {
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	n, err := p.expect(TokNumber)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(n.Text)
	if err != nil || length <= 0 {
		return nil, errs.New(errs.UnknownType, "invalid FixedString length: "+n.Text)
	}
	name := "FixedString(" + n.Text + ")"
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: KindFixedString, fixedLen: length, name: name}
	}), nil
}

func (p *parser) parseDateTime() (*ColumnType, error) {
	if p.tok.Kind != TokOpeningRoundBracket {
		return internScalar(p.intern, KindDateTime, "DateTime"), nil
	}
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	tz, err := p.expect(TokStringLiteral)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	name := "DateTime('" + tz.Text + "')"
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: KindDateTime, timezone: tz.Text, name: name}
	}), nil
}

func (p *parser) parseEnum(kind Kind, bound, maxSigned int64) (*ColumnType, error) {
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	var names []string
	var values []int64
	var raw string
	for {
		lit, err := p.expect(TokStringLiteral)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokEquals); err != nil {
			return nil, err
		}
		neg := false
		if p.tok.Kind == TokMinus {
			neg = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		numTok, err := p.expect(TokNumber)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(numTok.Text, 10, 64)
		if err != nil {
			return nil, errs.New(errs.UnknownType, "invalid enum value: "+numTok.Text)
		}
		if neg {
			n = -n
		}
		if n < -bound || n > maxSigned {
			return nil, errs.New(errs.DomainError, "enum value out of range: "+numTok.Text)
		}
		names = append(names, lit.Text)
		values = append(values, n)
		if raw != "" {
			raw += ", "
		}
		raw += "'" + lit.Text + "' = " + strconv.FormatInt(n, 10)

		if p.tok.Kind == TokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	name := kind.String() + "(" + raw + ")"
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: kind, enumNames: names, enumValues: values, name: name}
	}), nil
}

func (p *parser) parseArray() (*ColumnType, error) {
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	elem, err := p.parseOne()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	name := "Array(" + elem.Name() + ")"
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: KindArray, elem: elem, name: name}
	}), nil
}

// parseNullable enforces §4.4's restriction that Nullable cannot wrap
// Array, Tuple, Nested, or another Nullable.
func (p *parser) parseNullable() (*ColumnType, error) {
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	elem, err := p.parseOne()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	switch elem.Kind() {
	case KindArray, KindTuple, KindNested, KindNullable:
		return nil, errs.New(errs.DomainError, "Nullable cannot wrap "+elem.Kind().String())
	}
	name := "Nullable(" + elem.Name() + ")"
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: KindNullable, elem: elem, name: name}
	}), nil
}

func (p *parser) parseTuple() (*ColumnType, error) {
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	var fields []TupleField
	i := 1
	for {
		elem, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		fields = append(fields, TupleField{Name: "_" + strconv.Itoa(i), Type: elem})
		i++
		if p.tok.Kind == TokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	name := tupleName("Tuple", fields, false)
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: KindTuple, fields: fields, name: name}
	}), nil
}

// parseNested parses Nested(name Type, ...) — on the wire this is
// identical to Array(Tuple(...)) (§4.4), but the member names are kept
// so callers can address fields by name.
func (p *parser) parseNested() (*ColumnType, error) {
	if _, err := p.expect(TokOpeningRoundBracket); err != nil {
		return nil, err
	}
	var fields []TupleField
	for {
		id, err := p.expect(TokIdentifier)
		if err != nil {
			return nil, err
		}
		elem, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		fields = append(fields, TupleField{Name: id.Text, Type: elem})
		if p.tok.Kind == TokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokClosingRoundBracket); err != nil {
		return nil, err
	}
	name := tupleName("Nested", fields, true)
	return internCached(p.intern, name, func() *ColumnType {
		return &ColumnType{kind: KindNested, fields: fields, name: name}
	}), nil
}

func tupleName(head string, fields []TupleField, withNames bool) string {
	s := head + "("
	for i, f := range fields {
		if i > 0 {
			s += ", "
		}
		if withNames {
			s += f.Name + " "
		}
		s += f.Type.Name()
	}
	return s + ")"
}

func internScalar(intern map[string]*ColumnType, kind Kind, name string) *ColumnType {
	return internCached(intern, name, func() *ColumnType {
		return &ColumnType{kind: kind, name: name}
	})
}

func internCached(intern map[string]*ColumnType, name string, build func() *ColumnType) *ColumnType {
	if t, ok := intern[name]; ok {
		return t
	}
	t := build()
	intern[name] = t
	return t
}
