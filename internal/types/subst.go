package types

// Subst maps type parameters to replacement types.
type Subst map[TypeID]TypeID

// NewSubst pairs from[i] with to[i]. Extra elements of the longer slice are ignored.
func NewSubst(from, to []TypeID) Subst {
	n := min(len(from), len(to))
	if n == 0 {
		return nil
	}
	s := make(Subst, n)
	for i := range n {
		if from[i] != to[i] {
			s[from[i]] = to[i]
		}
	}
	return s
}

// Apply substitutes s through id, rebuilding composite types as needed.
func (in *Interner) Apply(id TypeID, s Subst) TypeID {
	if len(s) == 0 || id == NoTypeID {
		return id
	}
	if to, ok := s[id]; ok {
		return to
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindNamed, KindDelegate:
		args, changed := in.applyAll(tt.Args, s)
		res := tt.Result
		if tt.Kind == KindDelegate {
			if r := in.Apply(res, s); r != res {
				res, changed = r, true
			}
		}
		if !changed {
			return id
		}
		tt.Args, tt.Result = args, res
		return in.Intern(tt)
	case KindExprTree:
		if inner := in.Apply(tt.Result, s); inner != tt.Result {
			return in.ExprTree(inner)
		}
	}
	return id
}

func (in *Interner) applyAll(ids []TypeID, s Subst) ([]TypeID, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	out := make([]TypeID, len(ids))
	changed := false
	for i, a := range ids {
		out[i] = in.Apply(a, s)
		changed = changed || out[i] != a
	}
	return out, changed
}

// Mentions reports whether id refers to any key of s.
func (in *Interner) Mentions(id TypeID, s Subst) bool {
	return len(s) > 0 && in.Apply(id, s) != id
}
