// Package diag defines the diagnostic model shared by the fixture loader and
// the lowering passes.
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form (FIX5001, LFT9001, ...), a short Message, the Primary
// span and optional Notes pointing at related locations.
//
// Passes never return user-facing problems as Go errors. They call
// Reporter.Report, directly or through a ReportBuilder, and keep going so a
// single run surfaces as many diagnostics as possible. BagReporter collects
// into a Bag which supports sorting, deduplication and merging of per-worker
// bags. Rendering lives in internal/diagfmt.
package diag
