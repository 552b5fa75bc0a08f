package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"lift/internal/diag"
	"lift/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	content := []byte("body:\n  - expr: {local: héllo}\n")
	id := fs.AddVirtual("/home/user/project/fixtures/unit.yaml", content)
	fs.SetBaseDir("/home/user/project")

	start := uint32(strings.Index(string(content), "héllo"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.LowerCaptureRestricted,
		source.Span{File: id, Start: start, End: start + uint32(len("héllo"))},
		"cannot capture 'héllo'").
		WithNote(source.Span{File: id, Start: 0, End: 4}, "declared here")
	bag.Add(d)
	return bag, fs
}

func TestPrettyLayout(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, ShowNotes: true})
	out := buf.String()

	for _, want := range []string{
		"fixtures/unit.yaml:2:19: ERROR LFT9001: cannot capture 'héllo'",
		"    2 |   - expr: {local: héllo}",
		"^~~~~",
		"note: fixtures/unit.yaml:1:1: declared here",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
	// the caret lines up under the identifier measured in display cells
	lines := strings.Split(out, "\n")
	if caret := strings.Index(lines[2], "^"); caret != strings.Index(lines[1], "héllo") {
		t.Errorf("caret at %d, identifier at %d", caret, strings.Index(lines[1], "héllo"))
	}
}

func TestPrettyBasenameWithoutNotes(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.HasPrefix(buf.String(), "unit.yaml:2:19:") {
		t.Errorf("unexpected prefix:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "note:") {
		t.Errorf("notes should be hidden")
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var doc DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Count != 1 || doc.Diagnostics[0].Code != "LFT9001" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	loc := doc.Diagnostics[0].Location
	if loc.File != "unit.yaml" || loc.StartLine != 2 || loc.StartCol != 19 {
		t.Errorf("location = %+v", loc)
	}
	if len(doc.Diagnostics[0].Notes) != 1 {
		t.Errorf("notes = %+v", doc.Diagnostics[0].Notes)
	}
}
