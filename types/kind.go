package types

// Kind tags a ColumnType's variant. Rather than one IDataType interface
// implemented by twenty-odd structs, ColumnType is a single tagged
// struct dispatching on Kind — the Design Notes call this out explicitly,
// and it is exactly how the teacher's entry.EnumeratedValue dispatches on
// its own evtype uint8 tag (see entry/enumerated_types.go) instead of a
// type hierarchy: cheaper bulk-path dispatch, and composite types
// (Array/Nullable/Tuple) simply hold an owned *ColumnType child.
type Kind uint8

const (
	KindUInt8 Kind = iota
	KindInt8
	KindUInt16
	KindInt16
	KindUInt32
	KindInt32
	KindUInt64
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindFixedString
	KindDate
	KindDateTime
	KindUUID
	KindEnum8
	KindEnum16
	KindArray
	KindNullable
	KindTuple
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindUInt8:
		return "UInt8"
	case KindInt8:
		return "Int8"
	case KindUInt16:
		return "UInt16"
	case KindInt16:
		return "Int16"
	case KindUInt32:
		return "UInt32"
	case KindInt32:
		return "Int32"
	case KindUInt64:
		return "UInt64"
	case KindInt64:
		return "Int64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindString:
		return "String"
	case KindFixedString:
		return "FixedString"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindUUID:
		return "UUID"
	case KindEnum8:
		return "Enum8"
	case KindEnum16:
		return "Enum16"
	case KindArray:
		return "Array"
	case KindNullable:
		return "Nullable"
	case KindTuple:
		return "Tuple"
	case KindNested:
		return "Nested"
	default:
		return "Unknown"
	}
}

// SQLType is the mapped external type tag exposed to the caller-facing
// statement layer — a closed set of SQL type tags in the same spirit as
// java.sql.Types (the JDBC-oriented lineage this protocol's client
// libraries share), kept small and Go-native here.
type SQLType int

const (
	SQLTinyInt SQLType = iota
	SQLSmallInt
	SQLInteger
	SQLBigInt
	SQLReal
	SQLDouble
	SQLVarChar
	SQLChar
	SQLDate
	SQLTimestamp
	SQLBinary
	SQLArray
	SQLStruct
	SQLOther
)

// TupleField is one named, typed member of a Tuple or Nested column.
type TupleField struct {
	Name string
	Type *ColumnType
}

// ColumnType is the capability object for a single column type (§3's
// IDataType). Instances are immutable once constructed; the registry
// interns them by canonical name so identical descriptors share one
// instance (§5).
type ColumnType struct {
	kind Kind

	fixedLen int    // FixedString(N)
	timezone string // DateTime[(tz)], empty means server default

	enumNames  []string // Enum8/Enum16, value-indexed by position matching enumValues
	enumValues []int64

	elem *ColumnType // Array(T), Nullable(T)

	fields []TupleField // Tuple(...), Nested(...)

	name string // canonical descriptor string, computed once at construction
}

// Kind returns the type's tag.
func (t *ColumnType) Kind() Kind { return t.kind }

// Name returns the canonical descriptor string; reparsing it yields an
// equivalent ColumnType (§8 invariant 1).
func (t *ColumnType) Name() string { return t.name }

// Elem returns the inner type of Array/Nullable, or nil otherwise.
func (t *ColumnType) Elem() *ColumnType { return t.elem }

// Fields returns the member list of Tuple/Nested, or nil otherwise.
func (t *ColumnType) Fields() []TupleField { return t.fields }

// FixedLen returns N for FixedString(N), or zero otherwise.
func (t *ColumnType) FixedLen() int { return t.fixedLen }

// SQLType maps this column type onto the closed external type tag set.
func (t *ColumnType) SQLType() SQLType {
	switch t.kind {
	case KindUInt8, KindInt8:
		return SQLTinyInt
	case KindUInt16, KindInt16:
		return SQLSmallInt
	case KindUInt32, KindInt32:
		return SQLInteger
	case KindUInt64, KindInt64:
		return SQLBigInt
	case KindFloat32:
		return SQLReal
	case KindFloat64:
		return SQLDouble
	case KindString:
		return SQLVarChar
	case KindFixedString:
		return SQLChar
	case KindDate:
		return SQLDate
	case KindDateTime:
		return SQLTimestamp
	case KindUUID:
		return SQLBinary
	case KindEnum8, KindEnum16:
		return SQLVarChar
	case KindArray, KindNested:
		return SQLArray
	case KindTuple:
		return SQLStruct
	case KindNullable:
		return t.elem.SQLType()
	default:
		return SQLOther
	}
}

// Default returns the type's default (zero) logical value.
func (t *ColumnType) Default() interface{} {
	switch t.kind {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return uint64(0)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return int64(0)
	case KindFloat32, KindFloat64:
		return float64(0)
	case KindString, KindFixedString:
		return []byte(nil)
	case KindDate, KindDateTime:
		return int64(0)
	case KindUUID:
		return [16]byte{}
	case KindEnum8, KindEnum16:
		if len(t.enumNames) > 0 {
			return t.enumNames[0]
		}
		return ""
	case KindNullable:
		return nil
	case KindArray, KindNested:
		return []interface{}{}
	case KindTuple:
		return make([]interface{}, len(t.fields))
	default:
		return nil
	}
}
