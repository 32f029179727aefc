package lsof

import (
	"iter"
	"sort"
	"strings"
)

// DefaultSeparator is the field separator of `lsof -F0` output.
const DefaultSeparator byte = 0

// Record maps semantic field names to decoded values for one input line.
type Record map[string]Value

// Get returns the value stored under a semantic field name.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Names returns the field names present in r, sorted.
func (r Record) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for name, v := range r {
		ov, ok := other[name]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// FieldStats counts the tokens of one line that did not reach the record.
type FieldStats struct {
	Unknown   int
	Malformed int
}

// Mapper assembles one Record per line.
//
// Malformed compound tokens are dropped and counted unless Strict is set, in
// which case the whole line fails with ErrMalformedField.
type Mapper struct {
	Separator byte
	Strict    bool
}

// MapLine decodes line with the NUL separator, dropping malformed fields.
func MapLine(line string) Record {
	rec, _, _ := Mapper{Separator: DefaultSeparator}.MapLine(line)
	return rec
}

// MapLine strips one trailing separator, then resolves every token of line.
// Unknown codes are ignored; a repeated field name keeps the last value.
func (m Mapper) MapLine(line string) (Record, FieldStats, error) {
	sep := string(m.Separator)
	line = strings.TrimSuffix(line, sep)

	rec := make(Record)
	var stats FieldStats
	for token := range tokens(line, sep) {
		if token == "" {
			continue
		}
		ft, raw, ok, err := resolve(token)
		if err != nil {
			stats.Malformed++
			if m.Strict {
				return nil, stats, err
			}
			continue
		}
		if !ok {
			stats.Unknown++
			continue
		}
		rec[ft.Name] = Coerce(ft, raw)
	}
	return rec, stats, nil
}

// resolve splits token and looks its code up. ok is false for unknown codes.
func resolve(token string) (FieldType, string, bool, error) {
	code, raw, err := Split(token)
	if err != nil {
		return FieldType{}, "", false, err
	}
	ft, ok := Lookup(code)
	return ft, raw, ok, nil
}

// tokens lazily yields the pieces of s between separators.
func tokens(s, sep string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			head, tail, found := strings.Cut(s, sep)
			if !yield(head) || !found {
				return
			}
			s = tail
		}
	}
}
