package unit

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"lift/internal/diag"
	"lift/internal/types"
)

// typeOf parses a type expression such as Func<int, Box<T>>.
func (b *binder) typeOf(n *yaml.Node) types.TypeID {
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		b.errorf(diag.FixBadDocument, n, "expected a type")
		return b.b.Invalid
	}
	p := &typeParser{b: b, at: n, src: n.Value}
	t := p.parse()
	p.space()
	if p.pos < len(p.src) {
		b.errorf(diag.FixBadDocument, n, "unexpected %q in type %q", p.src[p.pos:], p.src)
		return b.b.Invalid
	}
	return t
}

type typeParser struct {
	b   *binder
	at  *yaml.Node
	src string
	pos int
}

func (p *typeParser) space() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) eat(c byte) bool {
	p.space()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) name() string {
	p.space()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	return norm.NFC.String(p.src[start:p.pos])
}

func (p *typeParser) parse() types.TypeID {
	name := p.name()
	if name == "" {
		p.b.errorf(diag.FixBadDocument, p.at, "missing type name in %q", p.src)
		return p.b.b.Invalid
	}
	var args []types.TypeID
	if p.eat('<') {
		for {
			args = append(args, p.parse())
			if p.eat(',') {
				continue
			}
			if !p.eat('>') {
				p.b.errorf(diag.FixBadDocument, p.at, "unterminated type arguments in %q", p.src)
				return p.b.b.Invalid
			}
			break
		}
	}
	return p.b.resolveType(name, args, p.at)
}

func (b *binder) resolveType(name string, args []types.TypeID, at *yaml.Node) types.TypeID {
	arity := func(want int) bool {
		if len(args) != want {
			b.errorf(diag.FixBadTypeArguments, at, "%s expects %d type arguments, got %d", name, want, len(args))
			return false
		}
		return true
	}
	builtin := map[string]types.TypeID{
		"void": b.b.Void, "bool": b.b.Bool, "int": b.b.Int, "string": b.b.String, "object": b.b.Object,
	}
	if t, ok := builtin[name]; ok {
		if !arity(0) {
			return b.b.Invalid
		}
		return t
	}
	switch name {
	case "Func":
		if len(args) == 0 {
			b.errorf(diag.FixBadTypeArguments, at, "Func needs at least a result type")
			return b.b.Invalid
		}
		return b.ti.Delegate(args[:len(args)-1], args[len(args)-1])
	case "Action":
		return b.ti.Delegate(args, b.b.Void)
	case "Expr":
		if !arity(1) {
			return b.b.Invalid
		}
		if _, _, ok := b.ti.DelegateSignature(args[0]); !ok {
			b.errorf(diag.FixBadTypeArguments, at, "Expr wraps a delegate type, got %s", b.ti.String(args[0]))
			return b.b.Invalid
		}
		return b.ti.ExprTree(args[0])
	}
	if t, ok := b.typeParams[name]; ok {
		if !arity(0) {
			return b.b.Invalid
		}
		return t
	}
	if sym, ok := b.typeNames[name]; ok {
		def := b.table.MustGet(sym).Def
		info, _ := b.ti.DefInfo(def)
		if !arity(info.Arity) {
			return b.b.Invalid
		}
		return b.ti.Named(def, args...)
	}
	b.errorf(diag.FixUnknownType, at, "unknown type %s", name)
	return b.b.Invalid
}
