package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns the unit files of one run and resolves spans back to
// line/column positions. IDs are dense and start at 0. It is safe for
// concurrent use.
type FileSet struct {
	mu      sync.RWMutex
	files   []File
	byPath  map[string]FileID // newest version of each path
	baseDir string
}

func NewFileSet() *FileSet {
	return &FileSet{byPath: make(map[string]FileID)}
}

// NewFileSetWithBase returns a FileSet whose relative paths are rendered
// against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// SetBaseDir changes the directory relative paths are rendered against.
func (fs *FileSet) SetBaseDir(dir string) {
	fs.mu.Lock()
	fs.baseDir = dir
	fs.mu.Unlock()
}

// BaseDir is the directory relative paths are rendered against; the
// working directory when unset.
func (fs *FileSet) BaseDir() string {
	fs.mu.RLock()
	dir := fs.baseDir
	fs.mu.RUnlock()
	if dir != "" {
		return dir
	}
	wd, _ := os.Getwd()
	return wd
}

// Add registers content under path. Adding the same path twice yields two
// IDs; Lookup returns the newer.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("%s: file too large: %w", path, err))
	}
	f := File{
		Path:    filepath.ToSlash(filepath.Clean(path)),
		Content: content,
		LineIdx: newlineOffsets(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	id, err := safecast.Conv[FileID](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("too many files: %w", err))
	}
	f.ID = id
	fs.files = append(fs.files, f)
	fs.byPath[f.Path] = id
	return id
}

// Load reads path, strips a UTF-8 BOM and folds CRLF line endings.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- user-supplied unit path
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	content, flags := normalize(content)
	return fs.Add(path, content, flags), nil
}

// AddVirtual registers in-memory content, such as a test unit.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, flags := normalize(content)
	return fs.Add(name, content, flags|FileVirtual)
}

// Get returns the file with id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the newest file added under path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.byPath[filepath.ToSlash(filepath.Clean(path))]
	return id, ok
}

// Resolve converts span into 1-based positions. Unknown files resolve to
// zero positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return f.Position(span.Start), f.Position(span.End)
}

// Position converts a byte offset into a 1-based line and column.
func (f *File) Position(off uint32) LineCol {
	line := newlinesBefore(f.LineIdx, off)
	var lineStart uint32
	if line > 0 {
		lineStart = f.LineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line) + 1, Col: off - lineStart + 1} // #nosec G115 -- line <= len(LineIdx)
}

// lineBounds returns the byte range of the 1-based line without its
// newline. ok is false past the last line.
func (f *File) lineBounds(line uint32) (start, end uint32, ok bool) {
	size := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	n := int(line)
	if n == 0 || n > len(f.LineIdx)+1 {
		return size, size, false
	}
	if n > 1 {
		start = f.LineIdx[n-2] + 1
	}
	end = size
	if n <= len(f.LineIdx) {
		end = f.LineIdx[n-1]
	}
	return start, end, true
}

// Offset converts a 1-based position back into a byte offset, clamping
// columns to the line end and lines to the file end.
func (f *File) Offset(pos LineCol) uint32 {
	if pos.Line == 0 {
		return 0
	}
	start, end, ok := f.lineBounds(pos.Line)
	if !ok {
		return end
	}
	if pos.Col > 1 {
		start += pos.Col - 1
	}
	return min(start, end)
}

// GetLine returns the text of the 1-based line, or "" past the end.
func (f *File) GetLine(line uint32) string {
	start, end, ok := f.lineBounds(line)
	if !ok || int(start) >= len(f.Content) {
		return ""
	}
	return string(f.Content[start:end])
}

// FormatPath renders the file path for diagnostics. mode is one of
// absolute, relative, basename or auto; anything else keeps Path.
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
	case "relative":
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case "basename":
		return filepath.Base(f.Path)
	case "auto":
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}
