package symbols

import (
	"lift/internal/source"
	"lift/internal/types"
)

// Kind classifies the semantic meaning of a symbol.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindLocal
	KindParam
	// KindThis is the implicit receiver parameter of an instance method.
	KindThis
	KindMethod
	KindField
	KindType
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindParam:
		return "param"
	case KindThis:
		return "this"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindType:
		return "type"
	default:
		return "invalid"
	}
}

// MethodKind distinguishes ordinary methods from constructors and lambdas.
type MethodKind uint8

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
	MethodStaticConstructor
	// MethodLambda is the symbol of a lambda expression before lifting.
	MethodLambda
	// MethodClosure is a method synthesized from a lifted lambda.
	MethodClosure
)

func (k MethodKind) String() string {
	switch k {
	case MethodConstructor:
		return "ctor"
	case MethodStaticConstructor:
		return "cctor"
	case MethodLambda:
		return "lambda"
	case MethodClosure:
		return "closure"
	default:
		return "method"
	}
}

// Flags encode misc attributes for quick checks.
type Flags uint16

const (
	// FlagConst marks a compile-time constant local; it is never captured.
	FlagConst Flags = 1 << iota
	FlagStatic
	FlagSynthesized
)

// Strings returns a slice of textual flag labels.
func (f Flags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 3)
	if f&FlagConst != 0 {
		labels = append(labels, "const")
	}
	if f&FlagStatic != 0 {
		labels = append(labels, "static")
	}
	if f&FlagSynthesized != 0 {
		labels = append(labels, "synthesized")
	}
	return labels
}

// Symbol is one named entity. Fields that do not apply to a kind stay zero.
type Symbol struct {
	ID    SymbolID
	Kind  Kind
	Name  source.StringID
	Type  types.TypeID // value type; result type for methods; self type for types
	Flags Flags
	// Owner is the declaring method of locals and params, or the declaring
	// type of methods and fields.
	Owner SymbolID
	Span  source.Span

	// Methods.
	MethodKind MethodKind
	Params     []SymbolID
	TypeParams []types.TypeID
	This       SymbolID

	// Types.
	Def     types.DefID
	Members []SymbolID
}

// IsStatic reports whether the symbol carries FlagStatic.
func (s *Symbol) IsStatic() bool { return s.Flags&FlagStatic != 0 }

// IsConst reports whether the symbol carries FlagConst.
func (s *Symbol) IsConst() bool { return s.Flags&FlagConst != 0 }

// IsVariable reports whether the symbol can be captured by a closure.
func (s *Symbol) IsVariable() bool {
	return s.Kind == KindLocal || s.Kind == KindParam || s.Kind == KindThis
}
