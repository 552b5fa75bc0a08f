package lambda

import (
	"fmt"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/naming"
	"lift/internal/symbols"
	"lift/internal/types"
)

// Frame is a synthesized type holding the captured variables of one
// scope. The static container of capture-free closures is also a Frame,
// with a nil Scope and no captured fields.
type Frame struct {
	Ordinal int
	Scope   *Scope
	Def     types.DefID
	Type    symbols.SymbolID
	// TypeParams mirror the type parameters of the lowered method.
	TypeParams []types.TypeID
	// Fields maps a captured variable to its field.
	Fields map[symbols.SymbolID]symbols.SymbolID
	// Order lists captured variables in field order.
	Order []symbols.SymbolID
	Ctor  symbols.SymbolID
	// Link is the parent-link field, created when the frame is entered
	// with a parent to remember.
	Link symbols.SymbolID

	// Static container only.
	Singleton  symbols.SymbolID
	StaticCtor symbols.SymbolID

	cache map[int]symbols.SymbolID
}

// ClosureMethod is the method synthesized for one closure.
type ClosureMethod struct {
	Closure *Closure
	Method  symbols.SymbolID
	Owner   symbols.SymbolID
	Static  bool
	// TypeParams are the parameters the lifted body is expressed in.
	TypeParams []types.TypeID
	// Params maps each lambda parameter to the method parameter.
	Params map[symbols.SymbolID]symbols.SymbolID
}

type synthesis struct {
	table      *symbols.Table
	opts       *Options
	in         Input
	methodName string
	topParams  []types.TypeID

	frames    []*Frame
	byType    map[symbols.SymbolID]*Frame
	container *Frame
	methods   []MethodWithBody
	fieldSeq  int
}

func synthesize(an *Analysis, in Input, opts *Options) *synthesis {
	top := opts.Symbols.MustGet(in.Method)
	s := &synthesis{
		table:      opts.Symbols,
		opts:       opts,
		in:         in,
		methodName: opts.Symbols.Name(in.Method),
		topParams:  top.TypeParams,
		byType:     make(map[symbols.SymbolID]*Frame),
	}
	for _, sc := range an.Scopes {
		var f *Frame
		for _, v := range sc.Vars {
			if !an.Lifted(v) {
				continue
			}
			if f == nil {
				f = s.newFrame(sc)
			}
			s.addCaptured(an, f, v)
		}
	}
	for _, c := range an.Closures {
		if c.Kind == ClosureStatic || c.Kind == ClosureSingleton {
			s.newContainer()
			break
		}
	}
	for _, c := range an.Closures {
		if c.Kind != ClosureExprTree {
			c.Synth = s.closureMethod(c)
		}
	}
	return s
}

func (s *synthesis) types() *types.Interner { return s.table.Types() }

func (s *synthesis) notifyType(typ symbols.SymbolID) {
	if s.opts.Emitting && s.opts.Module != nil {
		s.opts.Module.AddSynthesizedType(typ)
	}
}

func (s *synthesis) notifyField(typ, field symbols.SymbolID) {
	if s.opts.Emitting && s.opts.Module != nil {
		s.opts.Module.AddSynthesizedField(typ, field)
	}
}

func (s *synthesis) notifyMethod(typ, m symbols.SymbolID) {
	if s.opts.Emitting && s.opts.Module != nil {
		s.opts.Module.AddSynthesizedMethod(typ, m)
	}
}

func (s *synthesis) declareType(name string, flags types.DefFlags, sc *Scope) *Frame {
	def := s.types().Define(name, len(s.topParams), flags|types.DefSynthesized)
	params := s.types().FreshParams(s.topParams)
	spec := symbols.TypeSpec{Name: name, Def: def, TypeParams: params, Flags: symbols.FlagSynthesized}
	if sc != nil {
		spec.Span = sc.Node.NodeSpan()
	}
	f := &Frame{
		Scope:      sc,
		Def:        def,
		Type:       s.table.NewType(spec),
		TypeParams: params,
		Fields:     make(map[symbols.SymbolID]symbols.SymbolID),
	}
	s.byType[f.Type] = f
	s.notifyType(f.Type)
	f.Ctor = s.newCtor(f.Type)
	return f
}

func (s *synthesis) newFrame(sc *Scope) *Frame {
	ord := len(s.frames)
	f := s.declareType(naming.FrameType(s.methodName, s.opts.Ordinal, ord), types.DefFrame, sc)
	f.Ordinal = ord
	sc.Frame = f
	s.frames = append(s.frames, f)
	return f
}

// newCtor declares `.ctor() { base.ctor(); }` on typ.
func (s *synthesis) newCtor(typ symbols.SymbolID) symbols.SymbolID {
	m := s.table.NewMethod(symbols.MethodSpec{
		Name:   naming.Ctor,
		Owner:  typ,
		Kind:   symbols.MethodConstructor,
		Flags:  symbols.FlagSynthesized,
		Result: s.types().Builtins().Void,
		Span:   s.table.MustGet(typ).Span,
	})
	f := bound.NewFactory(s.table, s.table.MustGet(typ).Span)
	body := f.Block(nil, f.CtorInit(f.Var(s.table.MustGet(m).This), s.table.ObjectCtor()))
	s.methods = append(s.methods, MethodWithBody{Method: m, Body: body})
	s.notifyMethod(typ, m)
	return m
}

func (s *synthesis) addCaptured(an *Analysis, f *Frame, v symbols.SymbolID) {
	sym := s.table.MustGet(v)
	s.fieldSeq++
	name := naming.CapturedField(s.table.Name(v), s.fieldSeq)
	typ := s.types().Apply(sym.Type, types.NewSubst(s.topParams, f.TypeParams))
	field := s.table.NewField(f.Type, name, typ, symbols.FlagSynthesized)
	f.Fields[v] = field
	f.Order = append(f.Order, v)
	s.notifyField(f.Type, field)

	if !s.types().IsRestricted(typ) {
		return
	}
	msg := fmt.Sprintf("cannot capture %q of type %s in a closure: values of this type cannot be stored on the heap",
		s.table.Name(v), s.types().String(sym.Type))
	for _, e := range an.EdgesOf(v) {
		s.opts.Reporter.Report(diag.LowerCaptureRestricted, diag.SevError, e.Span, msg,
			[]diag.Note{{Span: sym.Span, Msg: "declared here"}})
	}
}

func (s *synthesis) newContainer() {
	f := s.declareType(naming.StaticContainer(s.opts.Ordinal), 0, nil)
	f.Ordinal = -1
	s.container = f
	if !s.opts.SingletonStatics {
		return
	}
	self := s.table.MustGet(f.Type).Type
	f.Singleton = s.table.NewField(f.Type, naming.SingletonField, self, symbols.FlagSynthesized|symbols.FlagStatic)
	s.notifyField(f.Type, f.Singleton)

	f.StaticCtor = s.table.NewMethod(symbols.MethodSpec{
		Name:   naming.StaticCtor,
		Owner:  f.Type,
		Kind:   symbols.MethodStaticConstructor,
		Flags:  symbols.FlagSynthesized | symbols.FlagStatic,
		Result: s.types().Builtins().Void,
	})
	fac := bound.NewFactory(s.table, s.table.MustGet(f.Type).Span)
	body := fac.Block(nil, fac.AssignStmt(fac.StaticField(self, f.Singleton), fac.New(f.Ctor, self)))
	s.methods = append(s.methods, MethodWithBody{Method: f.StaticCtor, Body: body})
	s.notifyMethod(f.Type, f.StaticCtor)
}

func (s *synthesis) closureMethod(c *Closure) *ClosureMethod {
	cm := &ClosureMethod{Closure: c, Params: make(map[symbols.SymbolID]symbols.SymbolID)}
	flags := symbols.FlagSynthesized
	var own []types.TypeID
	switch c.Kind {
	case ClosureGeneral:
		f := c.FrameScope.Frame
		cm.Owner, cm.TypeParams = f.Type, f.TypeParams
	case ClosureThisOnly:
		own = s.types().FreshParams(s.topParams)
		cm.Owner, cm.TypeParams = s.in.ContainingType, own
	case ClosureStatic:
		cm.Owner, cm.TypeParams = s.container.Type, s.container.TypeParams
		cm.Static = true
		flags |= symbols.FlagStatic
	case ClosureSingleton:
		cm.Owner, cm.TypeParams = s.container.Type, s.container.TypeParams
	default:
		invariant("no method for %s closure", c.Kind)
	}
	subst := types.NewSubst(s.topParams, cm.TypeParams)
	lam := s.table.MustGet(c.Method)
	cm.Method = s.table.NewMethod(symbols.MethodSpec{
		Name:       naming.ClosureMethod(s.methodName, s.opts.Ordinal, c.ID),
		Owner:      cm.Owner,
		Kind:       symbols.MethodClosure,
		Flags:      flags,
		TypeParams: own,
		Result:     s.types().Apply(lam.Type, subst),
		Span:       c.Lambda.Span,
	})
	for _, p := range c.Lambda.Data.(bound.LambdaData).Params {
		ps := s.table.MustGet(p)
		cm.Params[p] = s.table.NewParam(cm.Method, s.table.Name(p), s.types().Apply(ps.Type, subst), ps.Span)
	}
	s.notifyMethod(cm.Owner, cm.Method)
	return cm
}

// linkField returns the parent-link field of f, declaring it on first
// use. target is the frame or containing type the link points to.
func (s *synthesis) linkField(f *Frame, target symbols.SymbolID) symbols.SymbolID {
	if f.Link.IsValid() {
		return f.Link
	}
	name, typ := naming.ThisField, s.table.MustGet(target).Type
	if g := s.byType[target]; g != nil {
		name, typ = naming.ParentLink(g.Ordinal), s.types().Named(g.Def, f.TypeParams...)
	}
	f.Link = s.table.NewField(f.Type, name, typ, symbols.FlagSynthesized)
	s.notifyField(f.Type, f.Link)
	return f.Link
}

// cacheField returns the delegate cache field for closure c on f. The
// container's cache fields are static. delegate is in the method's terms.
func (s *synthesis) cacheField(f *Frame, c *Closure, delegate types.TypeID) symbols.SymbolID {
	if fld, ok := f.cache[c.ID]; ok {
		return fld
	}
	if f.cache == nil {
		f.cache = make(map[int]symbols.SymbolID)
	}
	name, flags := naming.FrameCacheField(c.ID), symbols.FlagSynthesized
	if f == s.container {
		name, flags = naming.StaticCacheField(s.opts.Ordinal, c.ID), flags|symbols.FlagStatic
	}
	typ := s.types().Apply(delegate, types.NewSubst(s.topParams, f.TypeParams))
	fld := s.table.NewField(f.Type, name, typ, flags)
	f.cache[c.ID] = fld
	s.notifyField(f.Type, fld)
	return fld
}
