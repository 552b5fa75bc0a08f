package source

import (
	"bytes"
	"path/filepath"
	"slices"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalize strips a leading BOM and folds CRLF into LF. Lone CRs stay.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if rest, ok := bytes.CutPrefix(content, utf8BOM); ok {
		content, flags = rest, flags|FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content, flags = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), flags|FileNormalizedCRLF
	}
	return content, flags
}

func newlineOffsets(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/16)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- size checked in Add
		}
	}
	return out
}

// newlinesBefore counts the newlines at offsets strictly below off.
func newlinesBefore(lineIdx []uint32, off uint32) int {
	n, _ := slices.BinarySearch(lineIdx, off)
	return n
}

// AbsolutePath returns the absolute, slash-separated form of path.
func AbsolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// RelativePath returns path relative to baseDir, slash-separated.
func RelativePath(path, baseDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
