// Package perf keeps a bounded in-memory record of request, query and upstream
// timings for the admin performance view.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest  EntryKind = iota // inbound HTTP request
	KindQuery                     // local sqlite query
	KindUpstream                  // call to the REST backend
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /path", sqlite op, or "GET /programs" upstream
	StatusCode int    // 0 for queries and transport failures
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer for timing entries.
// When full, the oldest entries are overwritten. Aggregation happens on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	count   int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: size > 0 (non-positive falls back to DefaultRingSize)
// POST: Returns a ready-to-use collector with pre-allocated storage
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size), size: size}
}

// Record appends an entry, overwriting the oldest when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % c.size
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
}

// RecordSince records an entry of the given kind whose duration runs from start to now.
func (c *Collector) RecordSince(kind EntryKind, path string, status int, start time.Time) {
	if c == nil {
		return
	}
	c.Record(Entry{
		Kind:       kind,
		Path:       path,
		StatusCode: status,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}

// TotalRecorded returns the total number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.count)
}

// Snapshot holds aggregated performance data.
type Snapshot struct {
	TotalRecorded   int64      `json:"totalRecorded"`
	RequestP50Ms    float64    `json:"requestP50Ms"`
	RequestP95Ms    float64    `json:"requestP95Ms"`
	RequestP99Ms    float64    `json:"requestP99Ms"`
	SlowestPaths    []PathStat `json:"slowestPaths"`
	SlowestQueries  []PathStat `json:"slowestQueries"`
	SlowestUpstream []PathStat `json:"slowestUpstream"`
	UpstreamErrors  int        `json:"upstreamErrors"`
}

// PathStat aggregates timing for a single key.
type PathStat struct {
	Path    string  `json:"path"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	Count   int     `json:"count"`
	TotalMs float64 `json:"totalMs"`
}

type statSet map[string]*PathStat

func (s statSet) add(e Entry) {
	st, ok := s[e.Path]
	if !ok {
		st = &PathStat{Path: e.Path}
		s[e.Path] = st
	}
	st.Count++
	st.TotalMs += e.DurationMs
	st.MaxMs = max(st.MaxMs, e.DurationMs)
}

// top returns the n keys with the highest average duration.
func (s statSet) top(n int) []PathStat {
	list := make([]PathStat, 0, len(s))
	for _, st := range s {
		st.AvgMs = st.TotalMs / float64(st.Count)
		list = append(list, *st)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// Snapshot aggregates entries recorded at or after since. Sorting makes this
// expensive, so it is only called from the admin perf endpoint.
// POST: Returns percentiles over requests and top-N lists per kind
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.entries)
	c.mu.Unlock()

	var durations []float64
	requests, queries, upstream := statSet{}, statSet{}, statSet{}
	upstreamErrors := 0

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			durations = append(durations, e.DurationMs)
			requests.add(e)
		case KindQuery:
			queries.add(e)
		case KindUpstream:
			upstream.add(e)
			if e.StatusCode == 0 || e.StatusCode >= 500 {
				upstreamErrors++
			}
		}
	}

	snap := Snapshot{
		TotalRecorded:   c.TotalRecorded(),
		SlowestPaths:    requests.top(topN),
		SlowestQueries:  queries.top(topN),
		SlowestUpstream: upstream.top(topN),
		UpstreamErrors:  upstreamErrors,
	}
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
