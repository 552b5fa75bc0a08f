package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("unit.yaml", []byte("hello world"), 0)
	id2 := fs.Add("unit.yaml", []byte("hello universe"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}

	latest, ok := fs.Lookup("unit.yaml")
	if !ok || latest != id2 {
		t.Fatalf("Lookup = %d,%v, want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("first version content = %q", got)
	}
	if fs.Get(FileID(99)) != nil {
		t.Errorf("expected nil for unknown file id")
	}
}

func TestResolveAndOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.yaml", []byte("ab\ncde\n\nf"))
	f := fs.Get(id)

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{5, LineCol{2, 3}},
		{7, LineCol{3, 1}},
		{8, LineCol{4, 1}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tc.off, start, tc.want)
		}
		if back := f.Offset(start); back != tc.off {
			t.Errorf("Offset(%+v) = %d, want %d", start, back, tc.off)
		}
	}
}

func TestOffsetClampsPastLineEnd(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("mem.yaml", []byte("ab\ncd")))
	if got := f.Offset(LineCol{Line: 1, Col: 40}); got != 2 {
		t.Errorf("Offset past line end = %d, want 2", got)
	}
	if got := f.Offset(LineCol{Line: 9, Col: 1}); got != 5 {
		t.Errorf("Offset past file end = %d, want 5", got)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("mem.yaml", []byte("first\nsecond\nthird")))
	for line, want := range map[uint32]string{0: "", 1: "first", 2: "second", 3: "third", 4: ""} {
		if got := f.GetLine(line); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", line, got, want)
		}
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unit.yaml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa: 1\r\nb: 2\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a: 1\nb: 2\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF bits", f.Flags)
	}
	if got := f.FormatPath("relative", dir); got != "unit.yaml" {
		t.Errorf("relative path = %q", got)
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("x")
	b := in.Intern("x")
	if a != b || a == NoStringID {
		t.Fatalf("Intern not stable: %d vs %d", a, b)
	}
	if s, ok := in.Lookup(a); !ok || s != "x" {
		t.Errorf("Lookup = %q,%v", s, ok)
	}
	if _, ok := in.Lookup(StringID(42)); ok {
		t.Errorf("expected unknown id to fail")
	}
	if in.Len() != 2 {
		t.Errorf("Len = %d, want 2", in.Len())
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 6}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 6}) {
		t.Errorf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 9}); got != a {
		t.Errorf("cross-file Cover changed span: %v", got)
	}
	if !a.Cover(b).Contains(a) {
		t.Errorf("cover should contain operand")
	}
}
