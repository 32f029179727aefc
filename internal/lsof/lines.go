package lsof

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// Lines yields the newline-terminated lines of r without their terminator.
//
// A line that is not valid UTF-8 is reported as ErrUnreadableLine and
// iteration continues with the next line. A read failure is reported once
// and ends the sequence.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		for n := 1; ; n++ {
			line, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				yield("", fmt.Errorf("%w: line %d: %w", ErrUnreadableLine, n, err))
				return
			}
			if line == "" && err != nil {
				return
			}
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")

			var lineErr error
			if !utf8.ValidString(line) {
				line, lineErr = "", fmt.Errorf("%w: line %d: invalid UTF-8", ErrUnreadableLine, n)
			}
			if !yield(line, lineErr) || err != nil {
				return
			}
		}
	}
}
