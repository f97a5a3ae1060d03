package ir

// Type is the kind of a document value.
type Type int

const (
	NullType Type = iota
	NumberType
	StringType
	BoolType
	ObjectType
	ArrayType
)

func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case ObjectType:
		return "object"
	case ArrayType:
		return "array"
	}
	return "<unknown type>"
}

// IsLeaf reports whether values of type t have no children.
func (t Type) IsLeaf() bool {
	return t != ObjectType && t != ArrayType
}
