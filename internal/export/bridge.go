package export

import (
	"time"

	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/google/uuid"
)

// ToMap converts rec into a map whose values are string or int64.
func ToMap(rec lsof.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for name, v := range rec {
		out[name] = v.Interface()
	}
	return out
}

// ToMaps converts every record in recs.
func ToMaps(recs []lsof.Record) []map[string]any {
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ToMap(rec))
	}
	return out
}

// Stats is the wire form of lsof.Stats.
type Stats struct {
	Lines           int `json:"lines"`
	Records         int `json:"records"`
	SkippedLines    int `json:"skipped_lines"`
	RejectedRecords int `json:"rejected_records"`
	UnknownFields   int `json:"unknown_fields"`
	MalformedFields int `json:"malformed_fields"`
}

func FromStats(s lsof.Stats) Stats {
	return Stats{
		Lines:           s.Lines,
		Records:         s.Records,
		SkippedLines:    s.SkippedLines,
		RejectedRecords: s.RejectedRecords,
		UnknownFields:   s.UnknownFields,
		MalformedFields: s.MalformedFields,
	}
}

// Snapshot is one decoded collection of records with its provenance.
type Snapshot struct {
	ID       string           `json:"id"`
	Host     string           `json:"host"`
	Source   string           `json:"source"`
	Boundary string           `json:"boundary"`
	TakenAt  time.Time        `json:"taken_at"`
	Stats    Stats            `json:"stats"`
	Records  []map[string]any `json:"records"`
}

func NewSnapshot(host, source string, boundary lsof.Boundary, recs []lsof.Record, stats lsof.Stats) Snapshot {
	return Snapshot{
		ID:       uuid.NewString(),
		Host:     host,
		Source:   source,
		Boundary: boundary.String(),
		TakenAt:  time.Now().UTC(),
		Stats:    FromStats(stats),
		Records:  ToMaps(recs),
	}
}
