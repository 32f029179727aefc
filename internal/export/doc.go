// Package export converts decoded lsof records into host-native shapes:
// plain maps, JSON lines, and snapshot envelopes. It performs no decoding.
package export
