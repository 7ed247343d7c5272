package downloader

import (
	"sync/atomic"
)

// Stats holds the run counters. It is shared by pointer between every
// in-flight task.
type Stats struct {
	supported   atomic.Uint32
	skipped     atomic.Uint32
	downloaded  atomic.Uint32
	failed      atomic.Uint32
	unsupported atomic.Uint32
}

type Snapshot struct {
	Supported   uint32
	Skipped     uint32
	Downloaded  uint32
	Failed      uint32
	Unsupported uint32
}

func (s *Stats) Supported()   { s.supported.Add(1) }
func (s *Stats) Skipped()     { s.skipped.Add(1) }
func (s *Stats) Downloaded()  { s.downloaded.Add(1) }
func (s *Stats) Failed()      { s.failed.Add(1) }
func (s *Stats) Unsupported() { s.unsupported.Add(1) }

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Supported:   s.supported.Load(),
		Skipped:     s.skipped.Load(),
		Downloaded:  s.downloaded.Load(),
		Failed:      s.failed.Load(),
		Unsupported: s.unsupported.Load(),
	}
}
