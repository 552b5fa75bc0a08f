package unit

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"lift/internal/bound"
	"lift/internal/diag"
	"lift/internal/lambda"
	"lift/internal/source"
	"lift/internal/symbols"
)

// ErrNoMethods is returned for a document that declares no methods.
var ErrNoMethods = errors.New("unit declares no methods")

// Unit is one loaded compilation unit.
type Unit struct {
	File    source.FileID
	Table   *symbols.Table
	Types   []symbols.SymbolID
	Methods []*Method
}

// Method is a declared method and its bound body.
type Method struct {
	Sym          symbols.SymbolID
	Owner        symbols.SymbolID
	Body         *bound.Block
	AssignLocals bool
	Span         source.Span
	// Broken is set when the body failed to bind.
	Broken bool
}

// Input returns the lowering input for m.
func (m *Method) Input(table *symbols.Table) lambda.Input {
	return lambda.Input{
		Method:         m.Sym,
		ContainingType: m.Owner,
		This:           table.MustGet(m.Sym).This,
		Body:           m.Body,
		AssignLocals:   m.AssignLocals,
	}
}

// Broken reports whether any method failed to bind.
func (u *Unit) Broken() bool {
	for _, m := range u.Methods {
		if m.Broken {
			return true
		}
	}
	return false
}

// Method returns the method with the given qualified name, or nil.
func (u *Unit) Method(qualified string) *Method {
	for _, m := range u.Methods {
		if u.Table.Qualified(m.Sym) == qualified {
			return m
		}
	}
	return nil
}

// Load reads path into fs and binds it.
func Load(fs *source.FileSet, path string, r diag.Reporter) (*Unit, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return Parse(fs, id, r)
}

// Parse binds the already loaded file id. Malformed YAML is an error;
// everything past the YAML syntax is reported through r.
func Parse(fs *source.FileSet, id source.FileID, r diag.Reporter) (*Unit, error) {
	f := fs.Get(id)
	if f == nil {
		return nil, fmt.Errorf("unit: unknown file %d", id)
	}
	if r == nil {
		r = diag.NopReporter{}
	}
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(f.Content))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unit: parse %s: %w", f.Path, err)
	}
	b := newBinder(f, r)
	u := &Unit{File: id, Table: b.table}
	b.document(&doc, u)
	if len(u.Methods) == 0 {
		return u, fmt.Errorf("%s: %w", f.Path, ErrNoMethods)
	}
	return u, nil
}
