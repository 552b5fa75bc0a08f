// Package unit loads compilation-unit fixtures: YAML documents declaring
// types and methods whose bodies are written as bound trees.
//
// A document has two top-level keys:
//
//	types:
//	  Widget: {fields: {count: int}}
//	  Box: {params: [T]}
//	  Span: {restricted: true}
//	methods:
//	  - name: Run
//	    owner: Widget
//	    params: {x: int}
//	    result: Func<int>
//	    locals: {y: int}
//	    body:
//	      - set: {y: 1}
//	      - return:
//	          lambda: {result: int, body: [{return: {add: [x, y]}}]}
//
// Statements and expressions are single-key mappings named after the node
// kind. Plain scalars are variable references (this and base included),
// integers and booleans are literals and quoted scalars are strings.
// Identifiers are NFC-normalized before they are declared or resolved.
//
// Binding problems are reported as diagnostics. A method whose body did
// not bind is marked Broken and keeps a nil body.
package unit
