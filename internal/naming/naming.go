// Package naming mints the names of synthesized frames, fields, methods
// and locals. Every name contains '<' or '>', which no source identifier
// may contain, so synthesized names never collide with user names.
package naming

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Counter is the process-wide source of method ordinals. It is the only
// state shared between parallel lowering invocations.
type Counter struct {
	next atomic.Int64
}

// Next returns the next ordinal, starting at 0.
func (c *Counter) Next() int {
	return int(c.next.Add(1) - 1)
}

// Peek returns the ordinal the next call to Next will return.
func (c *Counter) Peek() int {
	return int(c.next.Load())
}

const (
	Ctor       = ".ctor"
	StaticCtor = ".cctor"
	// SingletonField holds the only instance of a static container.
	SingletonField = "<>9"
	// ThisField holds the enclosing receiver in a frame.
	ThisField = "<>4__this"
)

// FrameType names the frame for the frameOrd-th scope of a method.
func FrameType(method string, methodOrd, frameOrd int) string {
	return fmt.Sprintf("<%s>c__DisplayClass%d_%d", method, methodOrd, frameOrd)
}

// StaticContainer names the type hosting capture-free closures of a method.
func StaticContainer(methodOrd int) string {
	return fmt.Sprintf("<>c__%d", methodOrd)
}

// ClosureMethod names the method lifted from the closureOrd-th lambda of a method.
func ClosureMethod(method string, methodOrd, closureOrd int) string {
	return fmt.Sprintf("<%s>b__%d_%d", method, methodOrd, closureOrd)
}

// CapturedField names the frame field for a captured variable.
func CapturedField(variable string, n int) string {
	return fmt.Sprintf("<%s>5__%d", variable, n)
}

// ParentLink names the field linking a frame to its enclosing frame.
func ParentLink(parentFrameOrd int) string {
	return fmt.Sprintf("<>8__locals%d", parentFrameOrd)
}

// FramePointer names the local holding the frame of scope frameOrd.
func FramePointer(frameOrd int) string {
	return fmt.Sprintf("<>8__locals%d", frameOrd)
}

// StaticCacheField names the delegate cache for a capture-free closure.
func StaticCacheField(methodOrd, closureOrd int) string {
	return fmt.Sprintf("<>9__%d_%d", methodOrd, closureOrd)
}

// FrameCacheField names the delegate cache stored on a frame.
func FrameCacheField(closureOrd int) string {
	return fmt.Sprintf("<>9__%d", closureOrd)
}

// CacheLocal names the hoisted local caching a receiver-only closure.
func CacheLocal(closureOrd int) string {
	return fmt.Sprintf("<>9__CachedAnonymousMethodDelegate%d", closureOrd)
}

// IsSynthesized reports whether name was produced by this package.
func IsSynthesized(name string) bool {
	return strings.ContainsAny(name, "<>") || strings.HasPrefix(name, ".")
}

// ValidIdentifier reports whether name may be declared by source code.
func ValidIdentifier(name string) bool {
	return name != "" && !strings.ContainsAny(name, "<>.")
}
