package fuzztests

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB
	maxFuzzInput = 1 << 16
)

func addCorpusSeeds(f *testing.F) {
	matches, err := filepath.Glob(filepath.Join("..", "*", "testdata", "*.yaml"))
	if err != nil {
		return
	}
	for _, path := range matches {
		// #nosec G304 -- path comes from a fixed repository glob
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f.Add(clampSeed(src))
	}
	f.Add([]byte{})
	f.Add([]byte("methods: []\n"))
	f.Add([]byte("methods:\n  - name: M\n    body: [{return: {lambda: {body: []}}}]\n"))
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
