package symbols

import (
	"fmt"

	"lift/internal/source"
	"lift/internal/types"
)

// TypeSpec describes a type declaration.
type TypeSpec struct {
	Name       string
	Def        types.DefID
	TypeParams []types.TypeID
	Flags      Flags
	Span       source.Span
}

// NewType declares a type symbol whose self type is Def<TypeParams...>.
func (t *Table) NewType(spec TypeSpec) SymbolID {
	self := t.types.Named(spec.Def, spec.TypeParams...)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.syms.add(&Symbol{
		Kind:       KindType,
		Name:       t.strings.Intern(spec.Name),
		Type:       self,
		Flags:      spec.Flags,
		Span:       spec.Span,
		TypeParams: append([]types.TypeID(nil), spec.TypeParams...),
		Def:        spec.Def,
	})
}

// MethodSpec describes a method declaration.
type MethodSpec struct {
	Name       string
	Owner      SymbolID // declaring type; may be NoSymbolID for lambdas
	Kind       MethodKind
	Flags      Flags
	TypeParams []types.TypeID
	Result     types.TypeID
	Span       source.Span
}

// NewMethod declares a method. Instance methods with a declaring type get a
// `this` parameter typed as the owner's self type. Lambda symbols are
// registered as members of nothing.
func (t *Table) NewMethod(spec MethodSpec) SymbolID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.syms.add(&Symbol{
		Kind:       KindMethod,
		Name:       t.strings.Intern(spec.Name),
		Type:       spec.Result,
		Flags:      spec.Flags,
		Owner:      spec.Owner,
		Span:       spec.Span,
		MethodKind: spec.Kind,
		TypeParams: append([]types.TypeID(nil), spec.TypeParams...),
	})
	owner := t.syms.get(spec.Owner)
	if owner == nil || spec.Kind == MethodLambda {
		return id
	}
	owner.Members = append(owner.Members, id)
	if spec.Flags&FlagStatic == 0 {
		this := t.syms.add(&Symbol{
			Kind:  KindThis,
			Name:  t.strings.Intern("this"),
			Type:  owner.Type,
			Owner: id,
			Span:  spec.Span,
		})
		t.syms.get(id).This = this
	}
	return id
}

// NewParam appends a parameter to method.
func (t *Table) NewParam(method SymbolID, name string, typ types.TypeID, span source.Span) SymbolID {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.syms.get(method)
	if m == nil || m.Kind != KindMethod {
		panic(fmt.Sprintf("symbols: NewParam on non-method %d", method))
	}
	id := t.syms.add(&Symbol{
		Kind:  KindParam,
		Name:  t.strings.Intern(name),
		Type:  typ,
		Owner: method,
		Span:  span,
	})
	m.Params = append(m.Params, id)
	return id
}

// NewLocal declares a local variable owned by method.
func (t *Table) NewLocal(method SymbolID, name string, typ types.TypeID, flags Flags, span source.Span) SymbolID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.syms.add(&Symbol{
		Kind:  KindLocal,
		Name:  t.strings.Intern(name),
		Type:  typ,
		Flags: flags,
		Owner: method,
		Span:  span,
	})
}

// NewField declares a field of typ.
func (t *Table) NewField(typ SymbolID, name string, fieldType types.TypeID, flags Flags) SymbolID {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner := t.syms.get(typ)
	if owner == nil || owner.Kind != KindType {
		panic(fmt.Sprintf("symbols: NewField on non-type %d", typ))
	}
	id := t.syms.add(&Symbol{
		Kind:  KindField,
		Name:  t.strings.Intern(name),
		Type:  fieldType,
		Flags: flags,
		Owner: typ,
	})
	owner.Members = append(owner.Members, id)
	return id
}

// TypeOfDef finds the type symbol declared for def.
func (t *Table) TypeOfDef(def types.DefID) SymbolID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, sym := range t.syms.data[1:] {
		if sym.Kind == KindType && sym.Def == def && def != types.NoDefID {
			return sym.ID
		}
	}
	return NoSymbolID
}
