// Package diagnostics counts frame outcomes and serves them over HTTP and
// websockets. Nothing here is on the trigger path.
package diagnostics

import "sync/atomic"

// Counters is a point-in-time copy of Stats.
type Counters struct {
	FramesSent    uint64 `json:"frames_sent"`
	FramesStale   uint64 `json:"frames_stale"`
	FramesDropped uint64 `json:"frames_dropped"`
	BusErrors     uint64 `json:"bus_errors"`
}

// Stats is safe for concurrent use. The zero value is ready.
type Stats struct {
	sent, stale, dropped, busErrors atomic.Uint64
}

func (s *Stats) Sent()     { s.sent.Add(1) }
func (s *Stats) Stale()    { s.stale.Add(1) }
func (s *Stats) Dropped()  { s.dropped.Add(1) }
func (s *Stats) BusError() { s.busErrors.Add(1) }

func (s *Stats) Snapshot() Counters {
	return Counters{
		FramesSent:    s.sent.Load(),
		FramesStale:   s.stale.Load(),
		FramesDropped: s.dropped.Load(),
		BusErrors:     s.busErrors.Load(),
	}
}
