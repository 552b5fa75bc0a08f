package unit

import (
	"gopkg.in/yaml.v3"

	"lift/internal/diag"
	"lift/internal/naming"
	"lift/internal/symbols"
	"lift/internal/types"
)

// implicitOwner hosts methods that name no owner.
const implicitOwner = "Program"

type methodDecl struct {
	node       *yaml.Node
	fields     map[string]*yaml.Node
	sym        symbols.SymbolID
	owner      symbols.SymbolID
	typeParams map[string]types.TypeID
	failed     bool
}

func (b *binder) document(doc *yaml.Node, u *Unit) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	top := b.fields(root, "unit", "types", "methods")
	b.declareTypes(top["types"], u)

	var decls []*methodDecl
	b.items(b.require(top, root, "unit", "methods"), func(n *yaml.Node) {
		if d := b.declareMethod(n, u); d != nil {
			decls = append(decls, d)
		}
	})
	for _, d := range decls {
		u.Methods = append(u.Methods, b.bindMethod(d))
	}
}

// declareTypes declares every type before binding any field type, so
// fields may refer to types declared later in the document.
func (b *binder) declareTypes(n *yaml.Node, u *Unit) {
	type pending struct {
		sym    symbols.SymbolID
		fields *yaml.Node
	}
	var todo []pending
	b.pairs(n, "types", func(key, val *yaml.Node) {
		name, ok := b.ident(key)
		if !ok {
			return
		}
		if _, dup := b.typeNames[name]; dup {
			b.errorf(diag.FixDuplicateSymbol, key, "type %s is already declared", name)
			return
		}
		fs := b.fields(val, "type", "params", "fields", "restricted")
		var params []types.TypeID
		b.items(fs["params"], func(p *yaml.Node) {
			if pn, ok := b.ident(p); ok {
				params = append(params, b.ti.NewParam(pn))
			}
		})
		var flags types.DefFlags
		if b.flag(fs["restricted"]) {
			flags |= types.DefRestricted
		}
		sym := b.table.NewType(symbols.TypeSpec{
			Name:       name,
			Def:        b.ti.Define(name, len(params), flags),
			TypeParams: params,
			Span:       b.span(key),
		})
		b.typeNames[name] = sym
		u.Types = append(u.Types, sym)
		todo = append(todo, pending{sym: sym, fields: fs["fields"]})
	})
	for _, p := range todo {
		b.typeParams = b.ownerParams(p.sym)
		b.pairs(p.fields, "fields", func(key, val *yaml.Node) {
			if name, ok := b.ident(key); ok {
				if b.table.Member(p.sym, name).IsValid() {
					b.errorf(diag.FixDuplicateSymbol, key, "field %s is already declared", name)
					return
				}
				b.table.NewField(p.sym, name, b.typeOf(val), 0)
			}
		})
	}
	b.typeParams = nil
}

func (b *binder) ownerParams(typ symbols.SymbolID) map[string]types.TypeID {
	out := make(map[string]types.TypeID)
	for _, tp := range b.table.MustGet(typ).TypeParams {
		out[b.ti.ParamName(tp)] = tp
	}
	return out
}

func (b *binder) implicitType(u *Unit) symbols.SymbolID {
	if sym, ok := b.typeNames[implicitOwner]; ok {
		return sym
	}
	sym := b.table.NewType(symbols.TypeSpec{Name: implicitOwner, Def: b.ti.Define(implicitOwner, 0, 0)})
	b.typeNames[implicitOwner] = sym
	u.Types = append(u.Types, sym)
	return sym
}

func (b *binder) declareMethod(n *yaml.Node, u *Unit) *methodDecl {
	fs := b.fields(n, "method",
		"name", "owner", "kind", "static", "type_params", "params", "result", "locals", "body", "assign_locals")
	d := &methodDecl{node: n, fields: fs}
	b.failed = false

	if on := fs["owner"]; on != nil {
		sym, ok := b.typeNames[on.Value]
		if !ok {
			b.errorf(diag.FixUnknownType, on, "unknown owner type %s", on.Value)
			return nil
		}
		d.owner = sym
	} else {
		d.owner = b.implicitType(u)
	}

	kind := symbols.MethodOrdinary
	var flags symbols.Flags
	var name string
	switch k := fs["kind"]; {
	case k == nil || k.Value == "ordinary":
		nn := b.require(fs, n, "method", "name")
		if nn == nil {
			return nil
		}
		var ok bool
		if name, ok = b.ident(nn); !ok {
			return nil
		}
	case k.Value == "ctor":
		kind, name = symbols.MethodConstructor, naming.Ctor
	case k.Value == "cctor":
		kind, name = symbols.MethodStaticConstructor, naming.StaticCtor
		flags |= symbols.FlagStatic
	default:
		b.errorf(diag.FixUnknownNode, k, "unknown method kind %q (expected: ordinary|ctor|cctor)", k.Value)
		return nil
	}
	if b.flag(fs["static"]) {
		flags |= symbols.FlagStatic
	}

	d.typeParams = b.ownerParams(d.owner)
	var own []types.TypeID
	b.items(fs["type_params"], func(p *yaml.Node) {
		if pn, ok := b.ident(p); ok {
			tp := b.ti.NewParam(pn)
			d.typeParams[pn] = tp
			own = append(own, tp)
		}
	})
	b.typeParams = d.typeParams
	result := b.b.Void
	if rn := fs["result"]; rn != nil {
		result = b.typeOf(rn)
	}
	d.sym = b.table.NewMethod(symbols.MethodSpec{
		Name:       name,
		Owner:      d.owner,
		Kind:       kind,
		Flags:      flags,
		TypeParams: own,
		Result:     result,
		Span:       b.span(n),
	})
	b.declareParams(d.sym, fs["params"])
	b.typeParams = nil
	d.failed = b.failed
	return d
}

func (b *binder) bindMethod(d *methodDecl) *Method {
	b.typeParams = d.typeParams
	b.method, b.owner = d.sym, d.sym
	b.self = b.table.MustGet(d.sym).This
	b.scopes = nil
	b.failed = d.failed
	b.push()
	b.bindParams(d.sym, d.node)
	body := b.blockIn(d.fields["locals"], d.fields["body"], d.node)
	b.pop()

	m := &Method{
		Sym:          d.sym,
		Owner:        d.owner,
		Body:         body,
		AssignLocals: b.flag(d.fields["assign_locals"]),
		Span:         b.span(d.node),
		Broken:       b.failed,
	}
	if m.Broken {
		m.Body = nil
	}
	return m
}
