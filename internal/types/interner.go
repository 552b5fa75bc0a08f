package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID
	Int     TypeID
	String  TypeID
	Object  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Parallel lowering invocations synthesize frame types concurrently, so
// every method takes the interner lock.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[string]TypeID
	builtins Builtins
	defs     []Def
	params   []ParamInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[string]TypeID, 64),
	}
	in.defs = append(in.defs, Def{})           // reserve 0 as NoDefID
	in.params = append(in.params, ParamInfo{}) // reserve 0 as invalid slot
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.intern(Type{Kind: KindBool})
	in.builtins.Int = in.intern(Type{Kind: KindInt})
	in.builtins.String = in.intern(Type{Kind: KindString})
	in.builtins.Object = in.intern(Type{Kind: KindObject})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.intern(t)
}

func (in *Interner) intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	if len(t.Args) > 0 {
		t.Args = append([]TypeID(nil), t.Args...)
	}
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.lookup(id)
}

func (in *Interner) lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is unknown.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: unknown TypeID %d", id))
	}
	return tt
}

func typeKey(t Type) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(t.Kind)))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatUint(uint64(t.Def), 10))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatUint(uint64(t.Result), 10))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatUint(uint64(t.Slot), 10))
	for _, a := range t.Args {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return sb.String()
}

// String renders id the way fixtures spell types: int, T, Frame<T>, Func<int,bool>.
func (in *Interner) String(id TypeID) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	var sb strings.Builder
	in.write(&sb, id)
	return sb.String()
}

func (in *Interner) write(sb *strings.Builder, id TypeID) {
	tt, ok := in.lookup(id)
	if !ok {
		sb.WriteString("<invalid>")
		return
	}
	switch tt.Kind {
	case KindNamed:
		sb.WriteString(in.defs[tt.Def].Name)
		in.writeArgs(sb, tt.Args, NoTypeID)
	case KindParam:
		sb.WriteString(in.params[tt.Slot].Name)
	case KindDelegate:
		if res, _ := in.lookup(tt.Result); res.Kind == KindVoid {
			sb.WriteString("Action")
			in.writeArgs(sb, tt.Args, NoTypeID)
			return
		}
		sb.WriteString("Func")
		in.writeArgs(sb, tt.Args, tt.Result)
	case KindExprTree:
		sb.WriteString("Expr<")
		in.write(sb, tt.Result)
		sb.WriteByte('>')
	default:
		sb.WriteString(tt.Kind.String())
	}
}

func (in *Interner) writeArgs(sb *strings.Builder, args []TypeID, trailing TypeID) {
	if len(args) == 0 && trailing == NoTypeID {
		return
	}
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		in.write(sb, a)
	}
	if trailing != NoTypeID {
		if len(args) > 0 {
			sb.WriteByte(',')
		}
		in.write(sb, trailing)
	}
	sb.WriteByte('>')
}
