package bound

import (
	"fmt"
	"strings"

	"lift/internal/source"
	"lift/internal/symbols"
	"lift/internal/types"
)

// Block represents a sequence of statements with the locals it declares.
type Block struct {
	Span   source.Span
	Locals []symbols.SymbolID
	Stmts  []Stmt
}

// IsEmpty returns true if the block has no statements.
func (b *Block) IsEmpty() bool {
	return len(b.Stmts) == 0
}

// Catch is one catch clause of a try statement. ExceptionVar, when valid,
// is also listed in Locals.
type Catch struct {
	Span          source.Span
	Locals        []symbols.SymbolID
	ExceptionVar  symbols.SymbolID
	ExceptionType types.TypeID
	Filter        *Expr // may be nil
	Body          *Block
}

// SwitchData holds data for StmtSwitch. Locals declared in any section
// are scoped to the whole switch.
type SwitchData struct {
	Span     source.Span
	Value    *Expr
	Locals   []symbols.SymbolID
	Sections []SwitchSection
}

// SequenceData holds data for ExprSequence: side effects evaluated in
// order, then Value. Locals are scoped to the sequence.
type SequenceData struct {
	Span        source.Span
	Locals      []symbols.SymbolID
	SideEffects []*Expr
	Value       *Expr
}

// ScopeKind classifies the nodes that may declare variables.
type ScopeKind uint8

const (
	ScopeBlock ScopeKind = 1 << iota
	ScopeCatch
	ScopeSwitch
	ScopeSequence
)

// DefaultScopeKinds lets every declaring node introduce a scope.
const DefaultScopeKinds = ScopeBlock | ScopeCatch | ScopeSwitch | ScopeSequence

// Has reports whether kind is in the set.
func (s ScopeKind) Has(kind ScopeKind) bool { return s&kind != 0 }

func (s ScopeKind) String() string {
	switch s {
	case ScopeBlock:
		return "block"
	case ScopeCatch:
		return "catch"
	case ScopeSwitch:
		return "switch"
	case ScopeSequence:
		return "sequence"
	default:
		return "scope-set"
	}
}

// ParseScopeKinds builds a set from names as printed by String.
// "all" selects DefaultScopeKinds. Blocks always introduce a scope.
func ParseScopeKinds(names []string) (ScopeKind, error) {
	set := ScopeBlock
	for _, n := range names {
		switch strings.TrimSpace(strings.ToLower(n)) {
		case "", "block":
		case "catch":
			set |= ScopeCatch
		case "switch":
			set |= ScopeSwitch
		case "sequence":
			set |= ScopeSequence
		case "all":
			set = DefaultScopeKinds
		default:
			return set, fmt.Errorf("unknown scope kind %q (expected: block|catch|switch|sequence|all)", n)
		}
	}
	return set, nil
}

// ScopeNode is a node that can declare variables.
type ScopeNode interface {
	ScopeKind() ScopeKind
	DeclaredLocals() []symbols.SymbolID
	NodeSpan() source.Span
}

func (b *Block) ScopeKind() ScopeKind                      { return ScopeBlock }
func (b *Block) DeclaredLocals() []symbols.SymbolID        { return b.Locals }
func (b *Block) NodeSpan() source.Span                     { return b.Span }
func (c *Catch) ScopeKind() ScopeKind                      { return ScopeCatch }
func (c *Catch) DeclaredLocals() []symbols.SymbolID        { return c.Locals }
func (c *Catch) NodeSpan() source.Span                     { return c.Span }
func (s *SwitchData) ScopeKind() ScopeKind                 { return ScopeSwitch }
func (s *SwitchData) DeclaredLocals() []symbols.SymbolID   { return s.Locals }
func (s *SwitchData) NodeSpan() source.Span                { return s.Span }
func (s *SequenceData) ScopeKind() ScopeKind               { return ScopeSequence }
func (s *SequenceData) DeclaredLocals() []symbols.SymbolID { return s.Locals }
func (s *SequenceData) NodeSpan() source.Span              { return s.Span }
