package trace

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Format is the encoding of streamed or dumped events.
type Format uint8

const (
	FormatAuto Format = iota // chosen from the output path
	FormatText
	FormatNDJSON
)

// FormatEvent encodes ev as one line.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return ndjsonLine(ev)
	}
	return textLine(ev)
}

type ndjsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Lane     uint64            `json:"lane,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func ndjsonLine(ev *Event) []byte {
	data, err := json.Marshal(ndjsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		Lane:     ev.Lane,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// textLine renders
//
//	[seq] scope [Llane] [indent]mark name (detail) {k=v, ...}
func textLine(ev *Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%06d] %-6s ", ev.Seq, ev.Scope)
	if ev.Lane > 0 {
		fmt.Fprintf(&b, "L%d ", ev.Lane)
	}
	if ev.ParentID > 0 {
		b.WriteString("  ")
	}
	if int(ev.Kind) < len(kindMarks) {
		b.WriteString(kindMarks[ev.Kind])
	}
	b.WriteString(ev.Name)
	if ev.Detail != "" {
		fmt.Fprintf(&b, " (%s)", ev.Detail)
	}
	if len(ev.Extra) > 0 {
		pairs := make([]string, 0, len(ev.Extra))
		for k, v := range ev.Extra {
			pairs = append(pairs, k+"="+v)
		}
		slices.Sort(pairs)
		fmt.Fprintf(&b, " {%s}", strings.Join(pairs, ", "))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
