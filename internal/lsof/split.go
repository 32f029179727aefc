package lsof

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// compoundPrefix marks the multi-character TCP/TPI codes (TST=..., TQR=...).
const compoundPrefix = 'T'

// Split separates one field token into its code and raw value text.
// Values are returned verbatim, including empty and whitespace-only values.
func Split(token string) (code, raw string, err error) {
	if token == "" {
		return "", "", nil
	}
	if token[0] == compoundPrefix {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return "", "", fmt.Errorf("%w: %q has no '='", ErrMalformedField, token)
		}
		return key, value, nil
	}
	_, size := utf8.DecodeRuneInString(token)
	return token[:size], token[size:], nil
}
