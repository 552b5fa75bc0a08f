package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI in-process. Flag values persist on the command
// tree between runs, so every flag is reset to its default first.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			var def []string
			if inner := strings.Trim(f.DefValue, "[]"); inner != "" {
				def = strings.Split(inner, ",")
			}
			_ = sv.Replace(def)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

var unitFixture = filepath.Join("..", "..", "internal", "driver", "testdata", "unit.yaml")

func TestLowerJSONUsesManifest(t *testing.T) {
	dir := t.TempDir()
	config := writeManifest(t, dir, "[lower]\nemitting = true\n\n[cache]\nenabled = true\ndir = \"cache\"\n")

	out, errOut, err := execute(t, "--config", config, "lower", "--format", "json", unitFixture)
	require.NoError(t, err, errOut)
	var payload lowerPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload), out)
	assert.False(t, payload.Cached, "first run was cached")
	assert.Contains(t, payload.Output, "type <Counter>c__DisplayClass0_0")
	assert.Zero(t, payload.Diagnostics.Count)
	assert.EqualValues(t, 5, payload.Stats.Methods)

	out, _, err = execute(t, "--config", config, "lower", "--format", "json", unitFixture)
	require.NoError(t, err)
	payload = lowerPayload{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.True(t, payload.Cached, "second run should come from the cache")

	out, _, err = execute(t, "--config", config, "cache", "dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), strings.TrimSpace(out))

	out, _, err = execute(t, "--config", config, "cache", "stat")
	require.NoError(t, err)
	assert.Contains(t, out, ": 1 entries, ")

	_, _, err = execute(t, "--config", config, "--quiet", "cache", "clean")
	require.NoError(t, err)
	out, _, err = execute(t, "--config", config, "lower", "--format", "json", unitFixture)
	require.NoError(t, err)
	payload = lowerPayload{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.False(t, payload.Cached, "clean should drop cached results")
}

func TestLowerRejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "lower", "--format", "yaml", unitFixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestScopesPrintsEachMethod(t *testing.T) {
	out, errOut, err := execute(t, "--color", "off", "scopes", unitFixture)
	require.NoError(t, err, errOut)
	for _, want := range []string{"// Widget.Counter", "// Widget.Loop", "// Widget.Plain"} {
		assert.Contains(t, out, want)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var payload struct {
		Tool    string `json:"tool"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload), out)
	assert.Equal(t, "lift", payload.Tool)
	assert.NotEmpty(t, payload.Version)
}

func TestLowerShortReportsRestrictedCapture(t *testing.T) {
	restricted := filepath.Join("..", "..", "internal", "driver", "testdata", "restricted.yaml")
	_, errOut, err := execute(t, "lower", "--format", "short", "--progress", "off", restricted)
	var code exitCode
	require.ErrorAs(t, err, &code)
	assert.Equal(t, exitCode(1), code)
	assert.Contains(t, errOut, "error LFT9001 ")
	assert.Contains(t, errOut, "restricted.yaml:")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2<<20))
}
