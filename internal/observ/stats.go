package observ

import (
	"fmt"
	"sync/atomic"
)

// Stats counts what lowering produced across all methods of a run.
type Stats struct {
	Methods     atomic.Int64
	Frames      atomic.Int64
	Closures    atomic.Int64
	CachedSites atomic.Int64
	Synthesized atomic.Int64
}

// StatsSnapshot is a plain copy of Stats.
type StatsSnapshot struct {
	Methods     int64 `json:"methods"`
	Frames      int64 `json:"frames"`
	Closures    int64 `json:"closures"`
	CachedSites int64 `json:"cached_sites"`
	Synthesized int64 `json:"synthesized_methods"`
}

// Snapshot reads all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Methods:     s.Methods.Load(),
		Frames:      s.Frames.Load(),
		Closures:    s.Closures.Load(),
		CachedSites: s.CachedSites.Load(),
		Synthesized: s.Synthesized.Load(),
	}
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("methods=%d frames=%d closures=%d cached=%d synthesized=%d",
		s.Methods, s.Frames, s.Closures, s.CachedSites, s.Synthesized)
}
