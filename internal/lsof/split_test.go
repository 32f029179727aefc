package lsof

import (
	"errors"
	"testing"
)

func TestSplitSingleCharacterCodes(t *testing.T) {
	values := []string{"", " ", "  \t", "50a701b1dcb4d7d92bae1fcd64ee065", "/dev/null", "x=y"}
	for _, ft := range Fields() {
		if len(ft.Code) != 1 {
			continue
		}
		for _, v := range values {
			code, raw, err := Split(ft.Code + v)
			if err != nil {
				t.Fatalf("split %q: %v", ft.Code+v, err)
			}
			if code != ft.Code || raw != v {
				t.Fatalf("split %q = (%q, %q)", ft.Code+v, code, raw)
			}
		}
	}
}

func TestSplitShortValuePreserved(t *testing.T) {
	code, raw, err := Split("a ")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if code != "a" || raw != " " {
		t.Fatalf("unexpected split: (%q, %q)", code, raw)
	}
}

func TestSplitCompoundCodes(t *testing.T) {
	values := []string{"", "0", "ESTABLISHED", " ", "SO_KEEPALIVE=7200", "=x"}
	compound := 0
	for _, ft := range Fields() {
		if len(ft.Code) <= 1 {
			continue
		}
		compound++
		for _, v := range values {
			token := ft.Code + "=" + v
			code, raw, err := Split(token)
			if err != nil {
				t.Fatalf("split %q: %v", token, err)
			}
			if code != ft.Code || raw != v {
				t.Fatalf("split %q = (%q, %q)", token, code, raw)
			}
		}
	}
	if compound != 8 {
		t.Fatalf("expected 8 compound codes, got %d", compound)
	}
}

func TestSplitCompoundWithoutDelimiter(t *testing.T) {
	for _, token := range []string{"T", "TST", "TSTESTABLISHED"} {
		if _, _, err := Split(token); !errors.Is(err, ErrMalformedField) {
			t.Fatalf("expected ErrMalformedField for %q, got %v", token, err)
		}
	}
}

func TestSplitEmptyToken(t *testing.T) {
	code, raw, err := Split("")
	if err != nil || code != "" || raw != "" {
		t.Fatalf("unexpected split of empty token: (%q, %q, %v)", code, raw, err)
	}
}
