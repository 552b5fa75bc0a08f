package bound

import (
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

// ExprKind enumerates bound expression kinds.
type ExprKind uint8

const (
	// ExprLocal reads or writes a local variable.
	ExprLocal ExprKind = iota
	// ExprParam reads or writes a parameter.
	ExprParam
	// ExprThis is the implicit or explicit receiver.
	ExprThis
	// ExprBase is the receiver viewed as its base type.
	ExprBase
	ExprLiteral
	ExprBinary
	ExprAssign
	// ExprCall invokes a method; a nil receiver means a static call.
	ExprCall
	// ExprField reads or writes a field; a nil receiver means a static field.
	ExprField
	// ExprNew constructs an object with the given constructor.
	ExprNew
	// ExprLambda is a lambda body. It only appears as the operand of an
	// ExprConvert to a delegate or expression-tree type.
	ExprLambda
	ExprConvert
	// ExprDelegate creates a delegate over a method group.
	ExprDelegate
	// ExprInvoke calls a delegate value.
	ExprInvoke
	// ExprCoalesce evaluates to Left unless it is null, else Right.
	ExprCoalesce
	// ExprSequence evaluates side effects then a value; Data is *SequenceData.
	ExprSequence
	// ExprQuote is the output of the expression-tree builder.
	ExprQuote
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLocal:
		return "Local"
	case ExprParam:
		return "Param"
	case ExprThis:
		return "This"
	case ExprBase:
		return "Base"
	case ExprLiteral:
		return "Literal"
	case ExprBinary:
		return "Binary"
	case ExprAssign:
		return "Assign"
	case ExprCall:
		return "Call"
	case ExprField:
		return "Field"
	case ExprNew:
		return "New"
	case ExprLambda:
		return "Lambda"
	case ExprConvert:
		return "Convert"
	case ExprDelegate:
		return "Delegate"
	case ExprInvoke:
		return "Invoke"
	case ExprCoalesce:
		return "Coalesce"
	case ExprSequence:
		return "Sequence"
	case ExprQuote:
		return "Quote"
	default:
		return "Unknown"
	}
}

// Expr represents a bound expression.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LocalData holds data for ExprLocal.
type LocalData struct {
	Sym symbols.SymbolID
}

func (LocalData) exprData() {}

// ParamData holds data for ExprParam.
type ParamData struct {
	Sym symbols.SymbolID
}

func (ParamData) exprData() {}

// ThisData holds data for ExprThis and ExprBase.
type ThisData struct {
	Sym symbols.SymbolID
}

func (ThisData) exprData() {}

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Value string // canonical source text, e.g. 42, true, "s"
	Null  bool
}

func (LiteralData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    string
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

func (AssignData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Receiver *Expr // nil for static calls
	Method   symbols.SymbolID
	TypeArgs []types.TypeID
	Args     []*Expr
	// CtorInit marks a base or this constructor call at the start of a constructor.
	CtorInit bool
}

func (CallData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Receiver *Expr // nil for static fields
	Field    symbols.SymbolID
}

func (FieldData) exprData() {}

// NewData holds data for ExprNew.
type NewData struct {
	Ctor symbols.SymbolID
	Args []*Expr
}

func (NewData) exprData() {}

// LambdaData holds data for ExprLambda.
type LambdaData struct {
	Method symbols.SymbolID // MethodLambda symbol
	Params []symbols.SymbolID
	Body   *Block
}

func (LambdaData) exprData() {}

// ConvertData holds data for ExprConvert.
type ConvertData struct {
	Operand *Expr
}

func (ConvertData) exprData() {}

// DelegateData holds data for ExprDelegate.
type DelegateData struct {
	Receiver *Expr // nil for static methods
	Method   symbols.SymbolID
	TypeArgs []types.TypeID
}

func (DelegateData) exprData() {}

// InvokeData holds data for ExprInvoke.
type InvokeData struct {
	Target *Expr
	Args   []*Expr
}

func (InvokeData) exprData() {}

// CoalesceData holds data for ExprCoalesce.
type CoalesceData struct {
	Left  *Expr
	Right *Expr
}

func (CoalesceData) exprData() {}

func (*SequenceData) exprData() {}

// QuoteData holds data for ExprQuote.
type QuoteData struct {
	Lambda *Expr
}

func (QuoteData) exprData() {}

// Lambda returns the lambda operand of a lambda conversion, or nil.
func (e *Expr) Lambda() (*LambdaData, bool) {
	if e == nil || e.Kind != ExprConvert {
		return nil, false
	}
	conv := e.Data.(ConvertData)
	if conv.Operand == nil || conv.Operand.Kind != ExprLambda {
		return nil, false
	}
	lam := conv.Operand.Data.(LambdaData)
	return &lam, true
}

// Symbol returns the variable referenced by a Local, Param, This or Base
// expression.
func (e *Expr) Symbol() (symbols.SymbolID, bool) {
	switch d := e.Data.(type) {
	case LocalData:
		return d.Sym, true
	case ParamData:
		return d.Sym, true
	case ThisData:
		return d.Sym, true
	}
	return symbols.NoSymbolID, false
}
