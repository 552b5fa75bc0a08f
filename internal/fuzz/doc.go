// Package fuzztests houses Go fuzz harnesses that push arbitrary bytes
// through the unit binder and the lowering pass. They guard against
// panics and hangs; they do not check output.
//
// Seeds come from the YAML fixtures under internal/*/testdata.
package fuzztests
