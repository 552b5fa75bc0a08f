package types

// Delegate returns the function type (params...) -> result.
func (in *Interner) Delegate(params []TypeID, result TypeID) TypeID {
	if result == NoTypeID {
		result = in.builtins.Void
	}
	return in.Intern(Type{Kind: KindDelegate, Args: params, Result: result})
}

// ExprTree wraps a delegate type as a quoted expression type.
func (in *Interner) ExprTree(delegate TypeID) TypeID {
	return in.Intern(Type{Kind: KindExprTree, Result: delegate})
}

// DelegateSignature returns the parameter and result types of a delegate.
// Expression-tree types report the signature of the wrapped delegate.
func (in *Interner) DelegateSignature(id TypeID) (params []TypeID, result TypeID, ok bool) {
	tt, found := in.Lookup(id)
	if !found {
		return nil, NoTypeID, false
	}
	if tt.Kind == KindExprTree {
		return in.DelegateSignature(tt.Result)
	}
	if tt.Kind != KindDelegate {
		return nil, NoTypeID, false
	}
	return append([]TypeID(nil), tt.Args...), tt.Result, true
}

// IsExprTree reports whether id is an expression-tree type.
func (in *Interner) IsExprTree(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindExprTree
}
