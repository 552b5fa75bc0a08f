//nolint:errcheck // printer output errors are surfaced by the caller's writer
package bound

import (
	"fmt"
	"io"
	"strings"

	"lift/internal/symbols"
	"lift/internal/types"
)

// Printer dumps bound trees as text. Output depends only on names and
// structure, never on symbol or type IDs.
type Printer struct {
	w      io.Writer
	table  *symbols.Table
	indent int
}

// NewPrinter creates a printer resolving names through table.
func NewPrinter(w io.Writer, table *symbols.Table) *Printer {
	return &Printer{w: w, table: table}
}

// Sprint renders a *Block, *Stmt or *Expr to a string.
func Sprint(table *symbols.Table, node any) string {
	var sb strings.Builder
	p := NewPrinter(&sb, table)
	switch n := node.(type) {
	case *Block:
		p.PrintBlock(n)
	case *Stmt:
		p.PrintStmt(n)
	case *Expr:
		p.PrintExpr(n)
	}
	return sb.String()
}

// PrintMethod prints the signature of method followed by body.
func (p *Printer) PrintMethod(method symbols.SymbolID, body *Block) {
	sym := p.table.MustGet(method)
	if sym.IsStatic() {
		p.printf("static ")
	}
	p.printf("%s", p.table.Qualified(method))
	if len(sym.TypeParams) > 0 {
		p.printf("<")
		for i, tp := range sym.TypeParams {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s", p.table.Types().String(tp))
		}
		p.printf(">")
	}
	p.printf("(")
	for i, param := range p.table.Params(method) {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s: %s", p.table.Name(param), p.typeOf(param))
	}
	p.printf("): %s\n", p.table.Types().String(sym.Type))
	p.PrintBlock(body)
}

// PrintBlock prints a block followed by a newline.
func (p *Printer) PrintBlock(b *Block) {
	p.block(b)
	p.printf("\n")
}

// PrintStmt prints one statement at the current indentation.
func (p *Printer) PrintStmt(s *Stmt) {
	p.writeIndent()
	p.stmt(s)
	p.printf("\n")
}

// PrintExpr prints one expression without a trailing newline.
func (p *Printer) PrintExpr(e *Expr) {
	p.expr(e)
}

func (p *Printer) block(b *Block) {
	if b == nil {
		p.printf("{}")
		return
	}
	p.printf("{\n")
	p.indent++
	p.locals(b.Locals)
	for i := range b.Stmts {
		p.PrintStmt(&b.Stmts[i])
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func (p *Printer) locals(locals []symbols.SymbolID) {
	for _, l := range locals {
		p.writeIndent()
		p.printf("local %s: %s\n", p.table.Name(l), p.typeOf(l))
	}
}

func (p *Printer) stmt(s *Stmt) {
	switch d := s.Data.(type) {
	case *Block:
		p.block(d)
	case ExprStmtData:
		p.expr(d.Expr)
		p.printf(";")
	case ReturnData:
		if d.Value == nil {
			p.printf("return;")
			return
		}
		p.printf("return ")
		p.expr(d.Value)
		p.printf(";")
	case IfData:
		p.printf("if (")
		p.expr(d.Cond)
		p.printf(") ")
		p.stmt(d.Then)
		if d.Else != nil {
			p.printf(" else ")
			p.stmt(d.Else)
		}
	case WhileData:
		if d.DoWhile {
			p.printf("do ")
			p.stmt(d.Body)
			p.printf(" while (")
			p.expr(d.Cond)
			p.printf(");")
			return
		}
		p.printf("while (")
		p.expr(d.Cond)
		p.printf(") ")
		p.stmt(d.Body)
	case ForData:
		p.printf("for (")
		if d.Init != nil {
			if es, ok := d.Init.Data.(ExprStmtData); ok {
				p.expr(es.Expr)
			} else {
				p.printf("<%s>", d.Init.Kind)
			}
		}
		p.printf("; ")
		p.optExpr(d.Cond)
		p.printf("; ")
		p.optExpr(d.Step)
		p.printf(") ")
		p.stmt(d.Body)
	case TryData:
		p.printf("try ")
		p.block(d.Body)
		for _, c := range d.Catches {
			p.printf(" catch (%s", p.table.Types().String(c.ExceptionType))
			if c.ExceptionVar.IsValid() {
				p.printf(" %s", p.table.Name(c.ExceptionVar))
			}
			p.printf(")")
			if c.Filter != nil {
				p.printf(" when (")
				p.expr(c.Filter)
				p.printf(")")
			}
			p.printf(" ")
			if extra := withoutSym(c.Locals, c.ExceptionVar); len(extra) > 0 {
				p.printf("[")
				for i, l := range extra {
					if i > 0 {
						p.printf(", ")
					}
					p.printf("%s: %s", p.table.Name(l), p.typeOf(l))
				}
				p.printf("] ")
			}
			p.block(c.Body)
		}
		if d.Finally != nil {
			p.printf(" finally ")
			p.block(d.Finally)
		}
	case *SwitchData:
		p.printf("switch (")
		p.expr(d.Value)
		p.printf(") {\n")
		p.indent++
		p.locals(d.Locals)
		for i := range d.Sections {
			sec := &d.Sections[i]
			p.writeIndent()
			if len(sec.Labels) == 0 {
				p.printf("default:\n")
			} else {
				for j, l := range sec.Labels {
					if j > 0 {
						p.printf(" ")
					}
					p.printf("case ")
					p.expr(l)
					p.printf(":")
				}
				p.printf("\n")
			}
			p.indent++
			for j := range sec.Stmts {
				p.PrintStmt(&sec.Stmts[j])
			}
			p.indent--
		}
		p.indent--
		p.writeIndent()
		p.printf("}")
	default:
		switch s.Kind {
		case StmtBreak:
			p.printf("break;")
		case StmtContinue:
			p.printf("continue;")
		case StmtNoOp:
			p.printf(";")
		default:
			p.printf("<%s>", s.Kind)
		}
	}
}

func (p *Printer) optExpr(e *Expr) {
	if e != nil {
		p.expr(e)
	}
}

func (p *Printer) expr(e *Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}
	switch d := e.Data.(type) {
	case LocalData:
		p.printf("%s", p.table.Name(d.Sym))
	case ParamData:
		p.printf("%s", p.table.Name(d.Sym))
	case ThisData:
		if e.Kind == ExprBase {
			p.printf("base")
		} else {
			p.printf("this")
		}
	case LiteralData:
		if d.Null {
			p.printf("null")
		} else {
			p.printf("%s", d.Value)
		}
	case BinaryData:
		p.printf("(")
		p.expr(d.Left)
		p.printf(" %s ", d.Op)
		p.expr(d.Right)
		p.printf(")")
	case AssignData:
		p.expr(d.Target)
		p.printf(" = ")
		p.expr(d.Value)
	case CallData:
		p.member(d.Receiver, d.Method)
		p.typeArgs(d.TypeArgs)
		p.args(d.Args)
	case FieldData:
		p.member(d.Receiver, d.Field)
	case NewData:
		p.printf("new %s", p.table.Types().String(e.Type))
		p.args(d.Args)
	case LambdaData:
		p.printf("(")
		for i, param := range d.Params {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s: %s", p.table.Name(param), p.typeOf(param))
		}
		p.printf(") => ")
		p.block(d.Body)
	case ConvertData:
		if d.Operand != nil && d.Operand.Kind == ExprLambda {
			p.expr(d.Operand)
			return
		}
		p.printf("(%s)", p.table.Types().String(e.Type))
		p.expr(d.Operand)
	case DelegateData:
		p.printf("new %s(", p.table.Types().String(e.Type))
		p.member(d.Receiver, d.Method)
		p.typeArgs(d.TypeArgs)
		p.printf(")")
	case InvokeData:
		p.expr(d.Target)
		p.args(d.Args)
	case CoalesceData:
		p.printf("(")
		p.expr(d.Left)
		p.printf(" ?? ")
		p.expr(d.Right)
		p.printf(")")
	case *SequenceData:
		p.printf("seq(")
		for _, l := range d.Locals {
			p.printf("local %s: %s; ", p.table.Name(l), p.typeOf(l))
		}
		for _, se := range d.SideEffects {
			p.expr(se)
			p.printf("; ")
		}
		p.expr(d.Value)
		p.printf(")")
	case QuoteData:
		p.printf("quote ")
		p.expr(d.Lambda)
	default:
		p.printf("<%s>", e.Kind)
	}
}

// member prints receiver.name, or Owner.name for static members.
// Constructor names start with a dot and are appended directly: base.ctor().
func (p *Printer) member(receiver *Expr, sym symbols.SymbolID) {
	name := p.table.Name(sym)
	if receiver == nil {
		p.printf("%s", p.table.Qualified(sym))
		return
	}
	p.expr(receiver)
	if !strings.HasPrefix(name, ".") {
		p.printf(".")
	}
	p.printf("%s", name)
}

func (p *Printer) typeArgs(args []types.TypeID) {
	if len(args) == 0 {
		return
	}
	p.printf("<")
	for i, a := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s", p.table.Types().String(a))
	}
	p.printf(">")
}

func (p *Printer) args(args []*Expr) {
	p.printf("(")
	for i, a := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.expr(a)
	}
	p.printf(")")
}

func (p *Printer) typeOf(sym symbols.SymbolID) string {
	return p.table.Types().String(p.table.MustGet(sym).Type)
}

func (p *Printer) writeIndent() {
	for range p.indent {
		p.printf("  ")
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func withoutSym(list []symbols.SymbolID, sym symbols.SymbolID) []symbols.SymbolID {
	var out []symbols.SymbolID
	for _, s := range list {
		if s != sym {
			out = append(out, s)
		}
	}
	return out
}
