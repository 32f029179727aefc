package lsof

import "errors"

var (
	ErrSourceUnavailable = errors.New("lsof: source unavailable")
	ErrMalformedField    = errors.New("lsof: malformed field")
	ErrUnreadableLine    = errors.New("lsof: unreadable line")
)
