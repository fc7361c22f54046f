// Pipeline operation timing and counters
package pipeline

import (
	"sort"
	"time"
)

// Operation names recorded by the pipeline.
const (
	OpReevaluate        = "reevaluate"
	OpRefold            = "refold"
	OpBackgroundInstall = "background_install"
	OpBackgroundStale   = "background_stale"
	OpBackgroundFailed  = "background_failed"
	OpApplyToOriginal   = "apply_to_original"
)

// OperationStats aggregates one kind of operation.
type OperationStats struct {
	Count    int
	Failures int
	Total    time.Duration
	Last     time.Duration
	LastAt   time.Time
}

func (s OperationStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// recorder tracks operations of a single pipeline. Like the pipeline it is
// used from one goroutine only.
type recorder struct {
	ops map[string]*OperationStats
}

func newRecorder() *recorder {
	return &recorder{ops: make(map[string]*OperationStats)}
}

func (r *recorder) record(op string, d time.Duration, err error) {
	s, ok := r.ops[op]
	if !ok {
		s = &OperationStats{}
		r.ops[op] = s
	}
	s.Count++
	s.Total += d
	s.Last = d
	s.LastAt = time.Now()
	if err != nil {
		s.Failures++
	}
}

func (r *recorder) snapshot() map[string]OperationStats {
	result := make(map[string]OperationStats, len(r.ops))
	for name, s := range r.ops {
		result[name] = *s
	}
	return result
}

// fields flattens the stats for a single structured log line.
func (r *recorder) fields() map[string]interface{} {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make(map[string]interface{}, len(names)*2)
	for _, name := range names {
		s := r.ops[name]
		fields[name+"_count"] = s.Count
		fields[name+"_avg_ms"] = s.Average().Milliseconds()
	}
	return fields
}
