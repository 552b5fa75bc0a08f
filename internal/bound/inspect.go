package bound

// Inspect walks the tree rooted at a *Block, *Stmt or *Expr in pre-order,
// calling fn for every *Block, *Catch, *Stmt and *Expr. Returning false
// from fn skips the children of that node. Lambda bodies are included.
func Inspect(root any, fn func(n any) bool) {
	switch n := root.(type) {
	case *Block:
		inspectBlock(n, fn)
	case *Stmt:
		inspectStmt(n, fn)
	case *Expr:
		inspectExpr(n, fn)
	case *Catch:
		inspectCatch(n, fn)
	}
}

func inspectBlock(b *Block, fn func(any) bool) {
	if b == nil || !fn(b) {
		return
	}
	for i := range b.Stmts {
		inspectStmt(&b.Stmts[i], fn)
	}
}

func inspectCatch(c *Catch, fn func(any) bool) {
	if c == nil || !fn(c) {
		return
	}
	inspectExpr(c.Filter, fn)
	inspectBlock(c.Body, fn)
}

func inspectStmt(s *Stmt, fn func(any) bool) {
	if s == nil || !fn(s) {
		return
	}
	switch d := s.Data.(type) {
	case *Block:
		inspectBlock(d, fn)
	case ExprStmtData:
		inspectExpr(d.Expr, fn)
	case ReturnData:
		inspectExpr(d.Value, fn)
	case IfData:
		inspectExpr(d.Cond, fn)
		inspectStmt(d.Then, fn)
		inspectStmt(d.Else, fn)
	case WhileData:
		if d.DoWhile {
			inspectStmt(d.Body, fn)
			inspectExpr(d.Cond, fn)
		} else {
			inspectExpr(d.Cond, fn)
			inspectStmt(d.Body, fn)
		}
	case ForData:
		inspectStmt(d.Init, fn)
		inspectExpr(d.Cond, fn)
		inspectExpr(d.Step, fn)
		inspectStmt(d.Body, fn)
	case TryData:
		inspectBlock(d.Body, fn)
		for _, c := range d.Catches {
			inspectCatch(c, fn)
		}
		inspectBlock(d.Finally, fn)
	case *SwitchData:
		inspectExpr(d.Value, fn)
		for i := range d.Sections {
			sec := &d.Sections[i]
			for _, l := range sec.Labels {
				inspectExpr(l, fn)
			}
			for j := range sec.Stmts {
				inspectStmt(&sec.Stmts[j], fn)
			}
		}
	}
}

func inspectExpr(e *Expr, fn func(any) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch d := e.Data.(type) {
	case BinaryData:
		inspectExpr(d.Left, fn)
		inspectExpr(d.Right, fn)
	case AssignData:
		inspectExpr(d.Target, fn)
		inspectExpr(d.Value, fn)
	case CallData:
		inspectExpr(d.Receiver, fn)
		inspectExprs(d.Args, fn)
	case FieldData:
		inspectExpr(d.Receiver, fn)
	case NewData:
		inspectExprs(d.Args, fn)
	case LambdaData:
		inspectBlock(d.Body, fn)
	case ConvertData:
		inspectExpr(d.Operand, fn)
	case DelegateData:
		inspectExpr(d.Receiver, fn)
	case InvokeData:
		inspectExpr(d.Target, fn)
		inspectExprs(d.Args, fn)
	case CoalesceData:
		inspectExpr(d.Left, fn)
		inspectExpr(d.Right, fn)
	case *SequenceData:
		inspectExprs(d.SideEffects, fn)
		inspectExpr(d.Value, fn)
	case QuoteData:
		inspectExpr(d.Lambda, fn)
	}
}

func inspectExprs(es []*Expr, fn func(any) bool) {
	for _, e := range es {
		inspectExpr(e, fn)
	}
}

// ContainsLambda reports whether any lambda expression occurs under root.
func ContainsLambda(root any) bool {
	found := false
	Inspect(root, func(n any) bool {
		if e, ok := n.(*Expr); ok && e.Kind == ExprLambda {
			found = true
		}
		return !found
	})
	return found
}

// ContainsCtorInit reports whether root contains a constructor-initializer call.
// Lambda bodies are not searched.
func ContainsCtorInit(root any) bool {
	found := false
	Inspect(root, func(n any) bool {
		e, ok := n.(*Expr)
		if !ok {
			return !found
		}
		switch e.Kind {
		case ExprLambda:
			return false
		case ExprCall:
			if e.Data.(CallData).CtorInit {
				found = true
			}
		}
		return !found
	})
	return found
}
