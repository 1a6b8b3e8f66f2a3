package loop

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of loop counters.
type Stats struct {
	Mode      string `json:"mode"`
	Cycles    uint64 `json:"cycles"`
	NotReady  uint64 `json:"not_ready"`
	Frames    uint64 `json:"frames"`
	NoModel   uint64 `json:"no_model"`
	Started   uint64 `json:"inferences_started"`
	Succeeded uint64 `json:"inferences_succeeded"`
	Failed    uint64 `json:"inferences_failed"`
	Busy      uint64 `json:"busy"`
	Discarded uint64 `json:"discarded"`
	InFlight  bool   `json:"in_flight"`

	LastLatency   time.Duration `json:"-"`
	LastLatencyMs float64       `json:"last_latency_ms"`
}

type counters struct {
	cycles      atomic.Uint64
	notReady    atomic.Uint64
	frames      atomic.Uint64
	noModel     atomic.Uint64
	started     atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	busy        atomic.Uint64
	discarded   atomic.Uint64
	lastLatency atomic.Int64
}

func (c *counters) snapshot() Stats {
	lat := time.Duration(c.lastLatency.Load())
	return Stats{
		Cycles:        c.cycles.Load(),
		NotReady:      c.notReady.Load(),
		Frames:        c.frames.Load(),
		NoModel:       c.noModel.Load(),
		Started:       c.started.Load(),
		Succeeded:     c.succeeded.Load(),
		Failed:        c.failed.Load(),
		Busy:          c.busy.Load(),
		Discarded:     c.discarded.Load(),
		LastLatency:   lat,
		LastLatencyMs: float64(lat) / float64(time.Millisecond),
	}
}
