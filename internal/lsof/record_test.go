package lsof

import (
	"errors"
	"testing"
)

func TestMapLineFullProcessRecord(t *testing.T) {
	rec := MapLine("p195\x00g195\x00R1\x00cloginwindow\x00u501\x00Ljjaggars\x00")

	want := Record{
		"pid":        IntegerValue(195),
		"gid":        IntegerValue(195),
		"ppid":       IntegerValue(1),
		"command":    TextValue("loginwindow"),
		"uid":        IntegerValue(501),
		"login_name": TextValue("jjaggars"),
	}
	if !rec.Equal(want) {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestMapLineFileRecordKeepsBlankValues(t *testing.T) {
	rec := MapLine("fcwd\x00a \x00l \x00tDIR\x00D0x1000004\x00s704\x00i2\x00k22\x00n/\x00")

	checks := map[string]Value{
		"descriptor":    TextValue("cwd"),
		"access_mode":   TextValue(" "),
		"lock_status":   TextValue(" "),
		"type":          TextValue("DIR"),
		"device_number": TextValue("0x1000004"),
		"size":          IntegerValue(704),
		"inode_number":  IntegerValue(2),
		"link_count":    IntegerValue(22),
		"file_name":     TextValue("/"),
	}
	for name, want := range checks {
		got, ok := rec.Get(name)
		if !ok || got != want {
			t.Fatalf("%s: expected %#v, got %#v (present=%v)", name, want, got, ok)
		}
	}
	if len(rec) != len(checks) {
		t.Fatalf("unexpected field count: %v", rec.Names())
	}
}

func TestMapLineStripsOnlyOneTrailingSeparator(t *testing.T) {
	rec := MapLine("cfoo\x00\x00")
	if v, _ := rec.Get("command"); v != TextValue("foo") {
		t.Fatalf("unexpected command: %#v", v)
	}
	if len(rec) != 1 {
		t.Fatalf("unexpected fields: %v", rec.Names())
	}
}

func TestMapLineUnknownCodesIgnored(t *testing.T) {
	rec, stats, err := Mapper{}.MapLine("p1\x00xwhatever\x00TZZ=1\x00")
	if err != nil {
		t.Fatalf("map line: %v", err)
	}
	if len(rec) != 1 {
		t.Fatalf("expected only pid, got %v", rec.Names())
	}
	if stats.Unknown != 2 || stats.Malformed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMapLineLastWriteWins(t *testing.T) {
	rec := MapLine("p1\x00cfirst\x00p2\x00")
	if v, _ := rec.Get("pid"); v != IntegerValue(2) {
		t.Fatalf("expected later pid to win, got %#v", v)
	}
}

func TestMapLineCompoundFields(t *testing.T) {
	rec := MapLine("PTCP\x00TST=ESTABLISHED\x00TQR=0\x00TQS=abc\x00")
	if v, _ := rec.Get("tcp_connection_state"); v != TextValue("ESTABLISHED") {
		t.Fatalf("unexpected state: %#v", v)
	}
	if v, _ := rec.Get("tcp_read_queue_size"); v != IntegerValue(0) {
		t.Fatalf("unexpected read queue: %#v", v)
	}
	if v, _ := rec.Get("tcp_send_queue_size"); v != TextValue("abc") {
		t.Fatalf("unexpected send queue: %#v", v)
	}
}

func TestMapperMalformedLenientDropsField(t *testing.T) {
	rec, stats, err := Mapper{}.MapLine("p7\x00TSTESTABLISHED\x00cbash\x00")
	if err != nil {
		t.Fatalf("lenient mapper must not fail: %v", err)
	}
	if stats.Malformed != 1 {
		t.Fatalf("expected one malformed field, got %+v", stats)
	}
	if len(rec) != 2 {
		t.Fatalf("expected pid and command, got %v", rec.Names())
	}
}

func TestMapperMalformedStrictFailsLine(t *testing.T) {
	rec, _, err := Mapper{Strict: true}.MapLine("p7\x00TSTESTABLISHED\x00cbash\x00")
	if !errors.Is(err, ErrMalformedField) {
		t.Fatalf("expected ErrMalformedField, got %v", err)
	}
	if rec != nil {
		t.Fatalf("expected no record in strict mode, got %v", rec)
	}
}

func TestMapperCustomSeparator(t *testing.T) {
	rec, _, err := Mapper{Separator: ' '}.MapLine("p195 g195 R1 cloginwindow u501 Ljjaggars ")
	if err != nil {
		t.Fatalf("map line: %v", err)
	}
	if v, _ := rec.Get("login_name"); v != TextValue("jjaggars") {
		t.Fatalf("unexpected login name: %#v", v)
	}
}

func TestMapLineEmpty(t *testing.T) {
	if rec := MapLine(""); len(rec) != 0 {
		t.Fatalf("expected empty record, got %v", rec.Names())
	}
}

func TestMapLineIdempotent(t *testing.T) {
	line := "p195\x00g195\x00R1\x00cloginwindow\x00"
	if !MapLine(line).Equal(MapLine(line)) {
		t.Fatalf("decoding the same line twice must yield equal records")
	}
}
