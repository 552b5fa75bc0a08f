package main

import (
	"testing"

	"lift/internal/trace"
)

func TestTraceFlagsConfig(t *testing.T) {
	cases := []struct {
		name      string
		flags     traceFlags
		wantLevel trace.Level
		wantMode  trace.StorageMode
	}{
		{"defaults", traceFlags{level: "off", mode: "ring"}, trace.LevelOff, trace.ModeRing},
		{"output implies phase", traceFlags{output: "t.ndjson", level: "off", mode: "ring"}, trace.LevelPhase, trace.ModeBoth},
		{"explicit debug kept", traceFlags{output: "-", level: "debug", mode: "stream"}, trace.LevelDebug, trace.ModeStream},
		{"ring only", traceFlags{level: "detail", mode: "ring"}, trace.LevelDetail, trace.ModeRing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := tc.flags.config()
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Level != tc.wantLevel || cfg.Mode != tc.wantMode {
				t.Errorf("config = %v/%v, want %v/%v", cfg.Level, cfg.Mode, tc.wantLevel, tc.wantMode)
			}
		})
	}

	if _, err := (traceFlags{level: "loud", mode: "ring"}).config(); err == nil {
		t.Error("expected invalid level error")
	}
}
