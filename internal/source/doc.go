// Package source opens the byte streams that lsof records are decoded from.
//
// Ownership boundary:
// - dump files, plain or compressed
// - live lsof invocations on the local host or over ssh
//
// Every failure to open a stream wraps lsof.ErrSourceUnavailable.
package source
