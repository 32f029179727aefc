package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lsofctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lsofctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	decodeLines     = newDecodeCounter("lines_total", "Input lines seen by the decoder.")
	decodeRecords   = newDecodeCounter("records_total", "Records produced by the decoder.")
	decodeSkipped   = newDecodeCounter("skipped_lines_total", "Unreadable input lines that were skipped.")
	decodeRejected  = newDecodeCounter("rejected_records_total", "Records rejected by strict decoding.")
	decodeUnknown   = newDecodeCounter("unknown_fields_total", "Fields with an unrecognized code.")
	decodeMalformed = newDecodeCounter("malformed_fields_total", "Compound fields missing their '=' delimiter.")
	snapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lsofctl",
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Time to collect and decode one lsof snapshot.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source", "success"},
	)
)

func newDecodeCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lsofctl",
			Subsystem: "decode",
			Name:      name,
			Help:      help,
		},
		[]string{"source"},
	)
}

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			decodeLines, decodeRecords, decodeSkipped, decodeRejected, decodeUnknown, decodeMalformed,
			snapshotDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDecode adds the counters of one finished decode to the totals for source.
func RecordDecode(source string, stats lsof.Stats) {
	RegisterMetrics()
	decodeLines.WithLabelValues(source).Add(float64(stats.Lines))
	decodeRecords.WithLabelValues(source).Add(float64(stats.Records))
	decodeSkipped.WithLabelValues(source).Add(float64(stats.SkippedLines))
	decodeRejected.WithLabelValues(source).Add(float64(stats.RejectedRecords))
	decodeUnknown.WithLabelValues(source).Add(float64(stats.UnknownFields))
	decodeMalformed.WithLabelValues(source).Add(float64(stats.MalformedFields))
}

func RecordSnapshot(source string, duration time.Duration, success bool) {
	RegisterMetrics()
	snapshotDuration.WithLabelValues(source, strconv.FormatBool(success)).Observe(duration.Seconds())
}
