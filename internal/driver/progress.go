package driver

import "time"

// MethodStatus is the progress state of one method.
type MethodStatus string

const (
	MethodQueued  MethodStatus = "queued"
	MethodWorking MethodStatus = "lowering"
	MethodDone    MethodStatus = "done"
	MethodError   MethodStatus = "error"
	// MethodSkipped marks methods that were not selected or did not bind.
	MethodSkipped MethodStatus = "skipped"
)

// MethodEvent reports a method changing state during LowerFile.
type MethodEvent struct {
	Method  string
	Status  MethodStatus
	Elapsed time.Duration
	// Closures is set on MethodDone.
	Closures int
}

// ProgressSink receives method events. OnMethod is called from the
// lowering workers and must be safe for concurrent use.
type ProgressSink interface {
	OnMethod(MethodEvent)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- MethodEvent
}

func (s ChannelSink) OnMethod(ev MethodEvent) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

func (o *Options) progress(ev MethodEvent) {
	if o.Progress != nil {
		o.Progress.OnMethod(ev)
	}
}
