package lsof

import (
	"fmt"
	"iter"
	"strings"
)

// Boundary selects how records are delimited in the input.
type Boundary uint8

const (
	// BoundaryLine produces exactly one record per readable line.
	BoundaryLine Boundary = iota
	// BoundaryRepeat treats the input as a flat field stream and starts a
	// new record when a field name repeats. See boundary.go.
	BoundaryRepeat
)

func (b Boundary) String() string {
	switch b {
	case BoundaryLine:
		return "line"
	case BoundaryRepeat:
		return "repeat"
	default:
		return fmt.Sprintf("boundary(%d)", uint8(b))
	}
}

// ParseBoundary accepts "line" (or empty) and "repeat".
func ParseBoundary(raw string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "line":
		return BoundaryLine, nil
	case "repeat":
		return BoundaryRepeat, nil
	default:
		return 0, fmt.Errorf("lsof: unknown boundary %q", raw)
	}
}

// Stats summarizes what a Decoder dropped or degraded while decoding.
type Stats struct {
	Lines           int
	Records         int
	SkippedLines    int
	RejectedRecords int
	UnknownFields   int
	MalformedFields int
}

type Option func(*Decoder)

func WithSeparator(sep byte) Option {
	return func(d *Decoder) { d.mapper.Separator = sep }
}

// WithStrict makes a malformed field reject its whole record instead of
// only dropping the field.
func WithStrict(strict bool) Option {
	return func(d *Decoder) { d.mapper.Strict = strict }
}

func WithBoundary(b Boundary) Option {
	return func(d *Decoder) { d.boundary = b }
}

// Decoder turns a sequence of lines into a sequence of records.
// A Decoder is not safe for concurrent use; its Stats accumulate across
// every sequence it produces.
type Decoder struct {
	mapper   Mapper
	boundary Boundary
	stats    Stats
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{mapper: Mapper{Separator: DefaultSeparator}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode yields one record per readable line using the default Decoder.
func Decode(lines iter.Seq2[string, error]) iter.Seq[Record] {
	return NewDecoder().Records(lines)
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Records lazily decodes lines. Unreadable lines are skipped. The returned
// sequence consumes lines and is not restartable.
func (d *Decoder) Records(lines iter.Seq2[string, error]) iter.Seq[Record] {
	if d.boundary == BoundaryRepeat {
		return d.repeatRecords(lines)
	}
	return func(yield func(Record) bool) {
		for line, err := range lines {
			d.stats.Lines++
			if err != nil {
				d.stats.SkippedLines++
				continue
			}
			rec, fs, err := d.mapper.MapLine(line)
			d.addFieldStats(fs)
			if err != nil {
				d.stats.RejectedRecords++
				continue
			}
			d.stats.Records++
			if !yield(rec) {
				return
			}
		}
	}
}

func (d *Decoder) addFieldStats(fs FieldStats) {
	d.stats.UnknownFields += fs.Unknown
	d.stats.MalformedFields += fs.Malformed
}
