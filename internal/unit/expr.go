package unit

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

var binaryOps = map[string]string{
	"add": "+", "sub": "-", "mul": "*",
	"lt": "<", "le": "<=", "gt": ">", "ge": ">=", "eq": "==", "ne": "!=",
}

// invalid stands in for an expression that failed to bind.
func (b *binder) invalid(sp source.Span) *bound.Expr {
	b.failed = true
	return &bound.Expr{Kind: bound.ExprLiteral, Type: b.b.Invalid, Span: sp, Data: bound.LiteralData{Value: "?"}}
}

func (b *binder) expr(n *yaml.Node) *bound.Expr {
	if n == nil {
		return b.invalid(source.Span{File: b.file.ID})
	}
	sp := b.span(n)
	if n.Kind == yaml.ScalarNode {
		return b.scalar(n, sp)
	}
	key, val, ok := b.single(n, "expression")
	if !ok {
		return b.invalid(sp)
	}
	f := b.f.At(sp)
	if op, ok := binaryOps[key]; ok {
		l, r, ok := b.pair(val, key)
		if !ok {
			return b.invalid(sp)
		}
		typ := l.Type
		if len(op) > 1 || op == "<" || op == ">" {
			typ = b.b.Bool
		}
		return &bound.Expr{Kind: bound.ExprBinary, Type: typ, Span: sp, Data: bound.BinaryData{Op: op, Left: l, Right: r}}
	}
	switch key {
	case "assign":
		t, v, ok := b.pair(val, key)
		if !ok {
			return b.invalid(sp)
		}
		return f.Assign(t, v)
	case "coalesce":
		l, r, ok := b.pair(val, key)
		if !ok {
			return b.invalid(sp)
		}
		return f.Coalesce(l, r)
	case "null":
		return f.Null(b.typeOf(val))
	case "new":
		return b.newExpr(val, sp)
	case "field":
		return b.fieldExpr(val, sp)
	case "call":
		return b.callExpr(val, sp)
	case "delegate":
		return b.delegateExpr(val, sp)
	case "invoke":
		return b.invokeExpr(val, sp)
	case "lambda":
		return b.lambdaExpr(val, sp)
	case "seq":
		return b.seqExpr(val, sp)
	}
	b.errorf(diag.FixUnknownNode, n, "unknown expression %q", key)
	return b.invalid(sp)
}

func (b *binder) scalar(n *yaml.Node, sp source.Span) *bound.Expr {
	lit := func(typ types.TypeID, v string) *bound.Expr {
		return &bound.Expr{Kind: bound.ExprLiteral, Type: typ, Span: sp, Data: bound.LiteralData{Value: v}}
	}
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		return lit(b.b.String, strconv.Quote(n.Value))
	}
	switch n.Tag {
	case "!!int":
		return lit(b.b.Int, n.Value)
	case "!!bool":
		return lit(b.b.Bool, n.Value)
	case "!!null":
		return b.f.At(sp).Null(b.b.Object)
	}
	switch n.Value {
	case "this", "base":
		if !b.self.IsValid() {
			b.errorf(diag.FixUnknownSymbol, n, "%s used in a static method", n.Value)
			return b.invalid(sp)
		}
		e := b.f.At(sp).Var(b.self)
		if n.Value == "base" {
			e.Kind, e.Type = bound.ExprBase, b.b.Object
		}
		return e
	}
	return b.name(n)
}

// name resolves a variable reference.
func (b *binder) name(n *yaml.Node) *bound.Expr {
	sp := b.span(n)
	id, ok := b.ident(n)
	if !ok {
		return b.invalid(sp)
	}
	sym := b.lookup(id)
	if !sym.IsValid() {
		b.errorf(diag.FixUnknownSymbol, n, "undeclared variable %s", id)
		return b.invalid(sp)
	}
	return b.f.At(sp).Var(sym)
}

func (b *binder) pair(n *yaml.Node, what string) (*bound.Expr, *bound.Expr, bool) {
	if n == nil || n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		b.errorf(diag.FixBadDocument, n, "%s takes two operands", what)
		return nil, nil, false
	}
	return b.expr(n.Content[0]), b.expr(n.Content[1]), true
}

func (b *binder) args(n *yaml.Node) []*bound.Expr {
	var out []*bound.Expr
	b.items(n, func(a *yaml.Node) { out = append(out, b.expr(a)) })
	return out
}

// typeSymOf returns the declaring type symbol of a value type.
func (b *binder) typeSymOf(t types.TypeID) symbols.SymbolID {
	if t == b.b.Object {
		return b.table.Object()
	}
	return b.table.TypeOfDef(b.ti.DefOf(t))
}

// member resolves a method or field. With an explicit receiver the member
// is looked up on its type. Without one, Owner.name names a static member
// and a bare name is a member of the enclosing type, reached through this
// when it is an instance member.
func (b *binder) member(recvNode, nameNode *yaml.Node) (*bound.Expr, symbols.SymbolID, bool) {
	if nameNode == nil {
		return nil, symbols.NoSymbolID, false
	}
	var recv *bound.Expr
	var typ symbols.SymbolID
	name := nameNode.Value
	switch {
	case recvNode != nil:
		recv = b.expr(recvNode)
		typ = b.typeSymOf(recv.Type)
	case strings.Contains(name, "."):
		i := strings.LastIndexByte(name, '.')
		typName := name[:i]
		name = name[i+1:]
		var ok bool
		if typ, ok = b.typeNames[typName]; !ok {
			b.errorf(diag.FixUnknownType, nameNode, "unknown type %s", typName)
			return nil, symbols.NoSymbolID, false
		}
	default:
		typ = b.table.MustGet(b.method).Owner
	}
	sym := symbols.NoSymbolID
	if typ.IsValid() {
		sym = b.table.Member(typ, name)
	}
	if !sym.IsValid() {
		b.errorf(diag.FixUnknownSymbol, nameNode, "unknown member %s", nameNode.Value)
		return nil, symbols.NoSymbolID, false
	}
	if recvNode == nil && !b.table.MustGet(sym).IsStatic() {
		if strings.Contains(nameNode.Value, ".") || !b.self.IsValid() {
			b.errorf(diag.FixUnknownSymbol, nameNode, "%s is an instance member", nameNode.Value)
			return nil, symbols.NoSymbolID, false
		}
		recv = b.f.At(b.span(nameNode)).Var(b.self)
	}
	return recv, sym, true
}

// instantiate substitutes the method's and the receiver's type arguments
// into t.
func (b *binder) instantiate(t types.TypeID, method symbols.SymbolID, recv *bound.Expr, typeArgs []types.TypeID) types.TypeID {
	m := b.table.MustGet(method)
	from := append([]types.TypeID(nil), m.TypeParams...)
	to := append([]types.TypeID(nil), typeArgs...)
	if recv != nil {
		from = append(from, b.table.MustGet(m.Owner).TypeParams...)
		to = append(to, b.ti.TypeArgs(recv.Type)...)
	}
	if len(from) != len(to) {
		return t
	}
	return b.ti.Apply(t, types.NewSubst(from, to))
}

func (b *binder) typeArgs(n *yaml.Node, method symbols.SymbolID) ([]types.TypeID, bool) {
	var out []types.TypeID
	b.items(n, func(tn *yaml.Node) { out = append(out, b.typeOf(tn)) })
	if want := len(b.table.MustGet(method).TypeParams); len(out) != want {
		b.errorf(diag.FixBadTypeArguments, n, "%s expects %d type arguments, got %d", b.table.Qualified(method), want, len(out))
		return nil, false
	}
	return out, true
}

func (b *binder) callExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	fs := b.fields(val, "call", "recv", "method", "args", "type_args")
	recv, m, ok := b.member(fs["recv"], b.require(fs, val, "call", "method"))
	if !ok {
		return b.invalid(sp)
	}
	targs, ok := b.typeArgs(fs["type_args"], m)
	if !ok {
		return b.invalid(sp)
	}
	result := b.instantiate(b.table.MustGet(m).Type, m, recv, targs)
	e := b.f.At(sp).Call(recv, m, result, b.args(fs["args"])...)
	d := e.Data.(bound.CallData)
	d.TypeArgs = targs
	e.Data = d
	return e
}

func (b *binder) fieldExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	fs := b.fields(val, "field", "recv", "name")
	recv, fld, ok := b.member(fs["recv"], b.require(fs, val, "field", "name"))
	if !ok {
		return b.invalid(sp)
	}
	f := b.f.At(sp)
	if recv == nil {
		return f.StaticField(b.table.MustGet(b.table.MustGet(fld).Owner).Type, fld)
	}
	return f.Field(recv, fld)
}

// delegateExpr binds a method group conversion {recv, method, to}.
func (b *binder) delegateExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	fs := b.fields(val, "delegate", "recv", "method", "to", "type_args")
	recv, m, ok := b.member(fs["recv"], b.require(fs, val, "delegate", "method"))
	if !ok {
		return b.invalid(sp)
	}
	targs, ok := b.typeArgs(fs["type_args"], m)
	if !ok {
		return b.invalid(sp)
	}
	var typ types.TypeID
	if tn := fs["to"]; tn != nil {
		typ = b.typeOf(tn)
	} else {
		var params []types.TypeID
		for _, p := range b.table.Params(m) {
			params = append(params, b.instantiate(b.table.MustGet(p).Type, m, recv, targs))
		}
		typ = b.ti.Delegate(params, b.instantiate(b.table.MustGet(m).Type, m, recv, targs))
	}
	return b.f.At(sp).Delegate(typ, recv, m, targs)
}

func (b *binder) invokeExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	fs := b.fields(val, "invoke", "target", "args")
	target := b.expr(b.require(fs, val, "invoke", "target"))
	_, result, ok := b.ti.DelegateSignature(target.Type)
	if !ok {
		b.errorf(diag.FixBadDocument, val, "cannot invoke a value of type %s", b.ti.String(target.Type))
		return b.invalid(sp)
	}
	return &bound.Expr{Kind: bound.ExprInvoke, Type: result, Span: sp, Data: bound.InvokeData{Target: target, Args: b.args(fs["args"])}}
}

// newExpr binds `new: Type` or `new: {type, args}`.
func (b *binder) newExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	tn, argsNode := val, (*yaml.Node)(nil)
	if val != nil && val.Kind == yaml.MappingNode {
		fs := b.fields(val, "new", "type", "args")
		tn, argsNode = b.require(fs, val, "new", "type"), fs["args"]
	}
	typ := b.typeOf(tn)
	ctor := b.table.ObjectCtor()
	if ts := b.typeSymOf(typ); ts.IsValid() {
		if c := b.table.Member(ts, ".ctor"); c.IsValid() {
			ctor = c
		}
	}
	return b.f.At(sp).New(ctor, typ, b.args(argsNode)...)
}

// lambdaExpr binds {params, result, to, locals, body} to a lambda
// converted to its delegate (or expression-tree) type.
func (b *binder) lambdaExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	fs := b.fields(val, "lambda", "params", "result", "to", "locals", "body")
	var to types.TypeID
	if tn := fs["to"]; tn != nil {
		to = b.typeOf(tn)
	}
	result := b.b.Void
	switch {
	case fs["result"] != nil:
		result = b.typeOf(fs["result"])
	case to != types.NoTypeID:
		if _, r, ok := b.ti.DelegateSignature(to); ok {
			result = r
		}
	}
	lam := b.table.NewMethod(symbols.MethodSpec{
		Name:   "lambda",
		Owner:  b.table.MustGet(b.method).Owner,
		Kind:   symbols.MethodLambda,
		Result: result,
		Span:   sp,
	})
	b.declareParams(lam, fs["params"])
	params := b.table.Params(lam)
	if to == types.NoTypeID {
		pts := make([]types.TypeID, len(params))
		for i, p := range params {
			pts[i] = b.table.MustGet(p).Type
		}
		to = b.ti.Delegate(pts, result)
	}

	outer := b.owner
	b.owner = lam
	b.push()
	b.bindParams(lam, val)
	body := b.blockIn(fs["locals"], fs["body"], val)
	b.pop()
	b.owner = outer

	inner := &bound.Expr{Kind: bound.ExprLambda, Type: to, Span: sp, Data: bound.LambdaData{Method: lam, Params: params, Body: body}}
	return &bound.Expr{Kind: bound.ExprConvert, Type: to, Span: sp, Data: bound.ConvertData{Operand: inner}}
}

// seqExpr binds {locals, effects, value}.
func (b *binder) seqExpr(val *yaml.Node, sp source.Span) *bound.Expr {
	fs := b.fields(val, "seq", "locals", "effects", "value")
	b.push()
	defer b.pop()
	d := &bound.SequenceData{Span: sp, Locals: b.declareLocals(fs["locals"])}
	d.SideEffects = b.args(fs["effects"])
	d.Value = b.expr(b.require(fs, val, "seq", "value"))
	return &bound.Expr{Kind: bound.ExprSequence, Type: d.Value.Type, Span: sp, Data: d}
}
