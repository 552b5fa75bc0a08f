package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"lift/internal/driver"
	"lift/internal/ui"
)

type progressMode string

const (
	progressAuto progressMode = "auto"
	progressOn   progressMode = "on"
	progressOff  progressMode = "off"
)

func readProgressMode(value string) (progressMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return progressAuto, nil
	case "on":
		return progressOn, nil
	case "off":
		return progressOff, nil
	default:
		return "", fmt.Errorf("invalid --progress value %q (expected auto|on|off)", value)
	}
}

func shouldShowProgress(mode progressMode) bool {
	switch mode {
	case progressOn:
		return true
	case progressOff:
		return false
	default:
		return isTerminal(os.Stderr)
	}
}

type lowerOutcome struct {
	result *driver.Result
	err    error
}

// lowerWithProgress runs LowerFile while a progress view on stderr follows
// the method events.
func lowerWithProgress(ctx context.Context, path string, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.MethodEvent, 256)
	outcomeCh := make(chan lowerOutcome, 1)

	go func() {
		opts.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.LowerFile(ctx, path, opts)
		outcomeCh <- lowerOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(path, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep the workers from blocking on a view that is gone.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
