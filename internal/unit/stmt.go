package unit

import (
	"gopkg.in/yaml.v3"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/source"
	"lift/internal/symbols"
)

// blockOf binds a block with its own scope.
func (b *binder) blockOf(locals, stmts, at *yaml.Node) *bound.Block {
	b.push()
	defer b.pop()
	return b.blockIn(locals, stmts, at)
}

// blockIn binds a block into the current scope, which already holds the
// parameters of a method or lambda body.
func (b *binder) blockIn(locals, stmts, at *yaml.Node) *bound.Block {
	decl := b.declareLocals(locals)
	var out []bound.Stmt
	b.items(stmts, func(n *yaml.Node) {
		if s, ok := b.stmt(n); ok {
			out = append(out, s)
		}
	})
	return b.f.At(b.span(at)).Block(decl, out...)
}

// blockNode binds either a statement list or {locals, do}.
func (b *binder) blockNode(n *yaml.Node) *bound.Block {
	if n != nil && n.Kind == yaml.MappingNode {
		fs := b.fields(n, "block", "locals", "do")
		return b.blockOf(fs["locals"], fs["do"], n)
	}
	return b.blockOf(nil, n, n)
}

// nested binds a block that is used as a statement.
func (b *binder) nested(n *yaml.Node) *bound.Stmt {
	s := bound.BlockStmt(b.blockNode(n))
	return &s
}

func (b *binder) stmt(n *yaml.Node) (bound.Stmt, bool) {
	key, val, ok := b.single(n, "statement")
	if !ok {
		return bound.Stmt{}, false
	}
	sp := b.span(n)
	f := b.f.At(sp)
	switch key {
	case "break":
		return bound.Stmt{Kind: bound.StmtBreak, Span: sp}, true
	case "continue":
		return bound.Stmt{Kind: bound.StmtContinue, Span: sp}, true
	case "nop":
		return bound.Stmt{Kind: bound.StmtNoOp, Span: sp}, true
	case "expr":
		return f.ExprStmt(b.expr(val)), true
	case "return":
		if val == nil || val.Tag == "!!null" {
			return f.Return(nil), true
		}
		return f.Return(b.expr(val)), true
	case "set":
		var out bound.Stmt
		ok := false
		b.pairs(val, "set", func(k, v *yaml.Node) {
			if ok {
				b.errorf(diag.FixBadDocument, k, "set assigns one variable")
				return
			}
			out, ok = b.f.At(b.span(k)).AssignStmt(b.name(k), b.expr(v)), true
		})
		if !ok && val == nil {
			b.errorf(diag.FixMissingField, n, "set needs a variable")
		}
		return out, ok
	case "init":
		return b.ctorInit(val, sp)
	case "block":
		return bound.BlockStmt(b.blockNode(val)), true
	case "if":
		fs := b.fields(val, "if", "cond", "then", "else")
		d := bound.IfData{Cond: b.expr(b.require(fs, n, "if", "cond")), Then: b.nested(fs["then"])}
		if fs["else"] != nil {
			d.Else = b.nested(fs["else"])
		}
		return bound.Stmt{Kind: bound.StmtIf, Span: sp, Data: d}, true
	case "while", "do":
		fs := b.fields(val, key, "cond", "body")
		d := bound.WhileData{
			Cond:    b.expr(b.require(fs, n, key, "cond")),
			Body:    b.nested(fs["body"]),
			DoWhile: key == "do",
		}
		return bound.Stmt{Kind: bound.StmtWhile, Span: sp, Data: d}, true
	case "for":
		return b.forStmt(val, sp), true
	case "try":
		return b.tryStmt(val, n, sp), true
	case "switch":
		return b.switchStmt(val, sp), true
	}
	b.errorf(diag.FixUnknownNode, n, "unknown statement %q", key)
	return bound.Stmt{}, false
}

// ctorInit binds `init: base`, a call to the base constructor that must
// open a constructor body.
func (b *binder) ctorInit(val *yaml.Node, sp source.Span) (bound.Stmt, bool) {
	m := b.table.MustGet(b.method)
	if m.MethodKind != symbols.MethodConstructor {
		b.errorf(diag.FixBadDocument, val, "init is only valid in a constructor")
		return bound.Stmt{}, false
	}
	if val == nil || val.Value != "base" {
		b.errorf(diag.FixUnknownNode, val, "init expects base")
		return bound.Stmt{}, false
	}
	recv := &bound.Expr{Kind: bound.ExprBase, Type: b.b.Object, Span: b.span(val), Data: bound.ThisData{Sym: b.self}}
	return b.f.At(sp).CtorInit(recv, b.table.ObjectCtor()), true
}

func (b *binder) forStmt(val *yaml.Node, sp source.Span) bound.Stmt {
	fs := b.fields(val, "for", "init", "cond", "step", "body")
	var d bound.ForData
	if in := fs["init"]; in != nil {
		if s, ok := b.stmt(in); ok {
			d.Init = &s
		}
	}
	if c := fs["cond"]; c != nil {
		d.Cond = b.expr(c)
	}
	if st := fs["step"]; st != nil {
		d.Step = b.expr(st)
	}
	d.Body = b.nested(fs["body"])
	return bound.Stmt{Kind: bound.StmtFor, Span: sp, Data: d}
}

func (b *binder) tryStmt(val, at *yaml.Node, sp source.Span) bound.Stmt {
	fs := b.fields(val, "try", "body", "catches", "finally")
	d := bound.TryData{Body: b.blockNode(b.require(fs, at, "try", "body"))}
	b.items(fs["catches"], func(cn *yaml.Node) {
		d.Catches = append(d.Catches, b.catchClause(cn))
	})
	if fn := fs["finally"]; fn != nil {
		d.Finally = b.blockNode(fn)
	}
	return bound.Stmt{Kind: bound.StmtTry, Span: sp, Data: d}
}

// catchClause binds {var: {name: type}, type, filter, body}. The
// exception variable is scoped to the clause.
func (b *binder) catchClause(n *yaml.Node) *bound.Catch {
	fs := b.fields(n, "catch", "var", "type", "filter", "body")
	c := &bound.Catch{Span: b.span(n), ExceptionType: b.b.Object}
	b.push()
	defer b.pop()
	if vn := fs["var"]; vn != nil {
		c.Locals = b.declareLocals(vn)
		if len(c.Locals) != 1 {
			b.errorf(diag.FixBadDocument, vn, "catch declares exactly one variable")
		} else {
			c.ExceptionVar = c.Locals[0]
			c.ExceptionType = b.table.MustGet(c.ExceptionVar).Type
		}
	} else if tn := fs["type"]; tn != nil {
		c.ExceptionType = b.typeOf(tn)
	}
	if fn := fs["filter"]; fn != nil {
		c.Filter = b.expr(fn)
	}
	c.Body = b.blockNode(fs["body"])
	return c
}

// switchStmt binds {value, locals, sections: [{labels, do}]}. Locals are
// shared by every section.
func (b *binder) switchStmt(val *yaml.Node, sp source.Span) bound.Stmt {
	fs := b.fields(val, "switch", "value", "locals", "sections")
	d := &bound.SwitchData{Span: sp, Value: b.expr(b.require(fs, val, "switch", "value"))}
	b.push()
	defer b.pop()
	d.Locals = b.declareLocals(fs["locals"])
	b.items(fs["sections"], func(sn *yaml.Node) {
		sf := b.fields(sn, "section", "labels", "do")
		var sec bound.SwitchSection
		b.items(sf["labels"], func(ln *yaml.Node) { sec.Labels = append(sec.Labels, b.expr(ln)) })
		b.items(sf["do"], func(st *yaml.Node) {
			if s, ok := b.stmt(st); ok {
				sec.Stmts = append(sec.Stmts, s)
			}
		})
		d.Sections = append(d.Sections, sec)
	})
	return bound.Stmt{Kind: bound.StmtSwitch, Span: sp, Data: d}
}
