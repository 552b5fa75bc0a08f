package bound

import (
	"lift/internal/source"
)

// StmtKind enumerates bound statement kinds.
type StmtKind uint8

const (
	// StmtBlock is a nested block; Data is *Block.
	StmtBlock StmtKind = iota
	// StmtExpr evaluates an expression for its side effects.
	StmtExpr
	StmtReturn
	StmtIf
	// StmtWhile covers both while and do-while loops.
	StmtWhile
	StmtFor
	StmtTry
	// StmtSwitch is a switch statement; Data is *SwitchData.
	StmtSwitch
	StmtBreak
	StmtContinue
	StmtNoOp
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtBlock:
		return "Block"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtFor:
		return "For"
	case StmtTry:
		return "Try"
	case StmtSwitch:
		return "Switch"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtNoOp:
		return "NoOp"
	default:
		return "Unknown"
	}
}

// Stmt represents a bound statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // Kind-specific payload; nil for Break, Continue and NoOp
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (ReturnData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt // nil when absent
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond    *Expr
	Body    *Stmt
	DoWhile bool
}

func (WhileData) stmtData() {}

// ForData holds data for StmtFor. Variables declared by the initializer
// belong to an enclosing block.
type ForData struct {
	Init *Stmt // may be nil
	Cond *Expr // may be nil
	Step *Expr // may be nil
	Body *Stmt
}

func (ForData) stmtData() {}

// TryData holds data for StmtTry.
type TryData struct {
	Body    *Block
	Catches []*Catch
	Finally *Block // may be nil
}

func (TryData) stmtData() {}

// SwitchSection is one group of case labels with its statements.
type SwitchSection struct {
	Labels []*Expr // empty for default
	Stmts  []Stmt
}

func (*Block) stmtData()      {}
func (*SwitchData) stmtData() {}

// BlockStmt wraps a block as a statement.
func BlockStmt(b *Block) Stmt {
	return Stmt{Kind: StmtBlock, Span: b.Span, Data: b}
}
