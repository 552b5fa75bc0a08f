package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lift/internal/trace"
)

// activeTracer is what dumpTraceOnPanic dumps.
var activeTracer trace.Tracer = trace.Nop

type traceFlags struct {
	output    string
	level     string
	mode      string
	ringSize  int
	heartbeat time.Duration
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	pf := cmd.Root().PersistentFlags()
	var tf traceFlags
	var errs [5]error
	tf.output, errs[0] = pf.GetString("trace")
	tf.level, errs[1] = pf.GetString("trace-level")
	tf.mode, errs[2] = pf.GetString("trace-mode")
	tf.ringSize, errs[3] = pf.GetInt("trace-ring-size")
	tf.heartbeat, errs[4] = pf.GetDuration("trace-heartbeat")
	for _, err := range errs {
		if err != nil {
			return tf, fmt.Errorf("failed to read trace flags: %w", err)
		}
	}
	return tf, nil
}

// config turns the flags into a tracer config. Naming an output implies
// at least phase level and streaming next to the ring.
func (tf traceFlags) config() (trace.Config, error) {
	level, err := trace.ParseLevel(tf.level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(tf.mode)
	if err != nil {
		return trace.Config{}, err
	}
	if tf.output != "" {
		level = max(level, trace.LevelPhase)
		if mode == trace.ModeRing {
			mode = trace.ModeBoth
		}
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: tf.output,
		RingSize:   tf.ringSize,
		Heartbeat:  tf.heartbeat,
	}, nil
}

// setupTracing attaches the tracer the flags ask for to cmd's context and
// returns its cleanup.
func setupTracing(cmd *cobra.Command) (func(), error) {
	tf, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := tf.config()
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	if !tracer.Enabled() {
		return func() {}, nil
	}
	activeTracer = tracer
	heartbeat := trace.StartHeartbeat(tracer, cfg.Heartbeat)

	return func() {
		heartbeat.Stop()
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
		activeTracer = trace.Nop
	}, nil
}

// dumpTraceOnPanic writes the ring buffer to stderr and re-panics.
func dumpTraceOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	if ring := trace.Ring(activeTracer); ring != nil {
		fmt.Fprintln(os.Stderr, "--- trace (most recent last) ---")
		_ = ring.Dump(os.Stderr, trace.FormatText)
	}
	panic(r)
}
