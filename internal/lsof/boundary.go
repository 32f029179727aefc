package lsof

import (
	"iter"
	"strings"
)

// repeatRecords decodes input that carries no reliable record boundaries,
// such as `lsof -F` output with one field per line. Line breaks and
// separators both end a token. A record ends when a field name it already
// holds arrives again; that field opens the next record. The last record is
// emitted at end of input.
//
// In strict mode a malformed token rejects the record being assembled. The
// fields that follow still belong to that record, so they are dropped until
// one of its names repeats and opens the next record.
func (d *Decoder) repeatRecords(lines iter.Seq2[string, error]) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		sep := string(d.mapper.Separator)
		cur := make(Record)
		// non-nil while the tokens of a rejected record are being dropped
		var rejected Record
		emit := func() bool {
			if len(cur) == 0 {
				return true
			}
			rec := cur
			cur = make(Record)
			d.stats.Records++
			return yield(rec)
		}

		for line, err := range lines {
			d.stats.Lines++
			if err != nil {
				d.stats.SkippedLines++
				continue
			}
			line = strings.TrimSuffix(line, sep)
			for token := range tokens(line, sep) {
				if token == "" {
					continue
				}
				ft, raw, ok, err := resolve(token)
				if err != nil {
					d.stats.MalformedFields++
					if d.mapper.Strict && rejected == nil {
						d.stats.RejectedRecords++
						rejected = cur
						cur = make(Record)
					}
					continue
				}
				if !ok {
					d.stats.UnknownFields++
					continue
				}
				if rejected != nil {
					if _, seen := rejected[ft.Name]; !seen {
						rejected[ft.Name] = Value{}
						continue
					}
					rejected = nil
				}
				if _, seen := cur[ft.Name]; seen && !emit() {
					return
				}
				cur[ft.Name] = Coerce(ft, raw)
			}
		}
		emit()
	}
}
