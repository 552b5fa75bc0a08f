package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindString
	KindObject
	// KindNamed is an instantiation of a definition (class, frame, restricted struct).
	KindNamed
	// KindParam is a generic type parameter. Every parameter is distinct.
	KindParam
	// KindDelegate is a function type; Args are the parameter types.
	KindDelegate
	// KindExprTree wraps a delegate type whose lambdas are quoted instead of compiled.
	KindExprTree
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindNamed:
		return "named"
	case KindParam:
		return "param"
	case KindDelegate:
		return "delegate"
	case KindExprTree:
		return "expr"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind   Kind
	Def    DefID    // KindNamed
	Args   []TypeID // KindNamed type arguments, KindDelegate parameters
	Result TypeID   // KindDelegate result, KindExprTree delegate
	Slot   uint32   // KindParam slot
}
