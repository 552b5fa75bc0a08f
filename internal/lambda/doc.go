// Package lambda implements closure conversion: it rewrites a method body
// containing lambdas into ordinary methods plus heap-allocated frames.
//
// Lowering runs in four stages over one method:
//
//	Analyze     scope tree, declaring scopes, capture edges per closure
//	optimize    frame scope and kind of each closure, parent-link marks
//	synthesize  frame types, captured fields, closure method symbols
//	rewrite     frame prologues, field access paths, delegate creation
//
// Each call to Lower owns all of its state. The only value shared between
// concurrent calls is the method ordinal drawn by the caller from a
// naming.Counter, which makes every synthesized name a function of the
// program and the input order.
package lambda
