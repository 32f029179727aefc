package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/danmuck/lsofctl/internal/agent"
	"github.com/danmuck/lsofctl/internal/config"
	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/danmuck/lsofctl/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const dump = "p195\x00g195\x00R1\x00cloginwindow\x00u501\x00Ljjaggars\x00\n" +
	"fcwd\x00a \x00l \x00tDIR\x00D0x1000004\x00s704\x00i2\x00k22\x00n/\x00\n"

type stubRunner struct {
	out string
	err error
}

func (s stubRunner) Open(context.Context, string, ...string) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.out)), nil
}

func newTestServer(t *testing.T, runner stubRunner) *Server {
	t.Helper()
	return newTestServerWithConfig(t, config.DefaultAgentConfig(), runner)
}

func newTestServerWithConfig(t *testing.T, cfg config.AgentConfig, runner stubRunner) *Server {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	a := agent.NewWithRunner(cfg, runner, zerolog.Nop())
	s := Appear(a)
	s.RegisterRoutes()
	return s
}

func serve(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return rr, out
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, stubRunner{})
	for _, path := range []string{"/health", "/ready"} {
		rr, body := serve(t, s, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
		if body["service"] != "lsofctl" {
			t.Fatalf("%s: unexpected body %#v", path, body)
		}
	}
}

func TestFieldsListsDictionary(t *testing.T) {
	s := newTestServer(t, stubRunner{})
	rr, body := serve(t, s, http.MethodGet, "/fields", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	fields, _ := body["fields"].([]any)
	if len(fields) != len(lsof.Fields()) {
		t.Fatalf("expected %d fields, got %d", len(lsof.Fields()), len(fields))
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestServer(t, stubRunner{out: dump})
	rr, body := serve(t, s, http.MethodGet, "/snapshot", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	recs, _ := body["records"].([]any)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %#v", body["records"])
	}
	first, _ := recs[0].(map[string]any)
	if first["login_name"] != "jjaggars" || first["pid"] != float64(195) {
		t.Fatalf("unexpected first record: %#v", first)
	}
	if body["id"] == "" || body["source"] != "command" {
		t.Fatalf("unexpected snapshot envelope: %#v", body)
	}
}

func TestSnapshotSourceUnavailable(t *testing.T) {
	err := fmt.Errorf("%w: start lsof: not found", lsof.ErrSourceUnavailable)
	s := newTestServer(t, stubRunner{err: err})
	rr, body := serve(t, s, http.MethodGet, "/snapshot", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if !strings.Contains(fmt.Sprint(body["error"]), "source unavailable") {
		t.Fatalf("unexpected error body: %#v", body)
	}
}

func TestDecodeEndpoint(t *testing.T) {
	s := newTestServer(t, stubRunner{})

	rr, body := serve(t, s, http.MethodPost, "/decode", dump)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	recs, _ := body["records"].([]any)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	rr, body = serve(t, s, http.MethodPost, "/decode?boundary=repeat&separator=space", "p1 cinit p2 cbash ")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	stats, _ := body["stats"].(map[string]any)
	if stats["records"] != float64(2) {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	rr, body = serve(t, s, http.MethodPost, "/decode?strict=true", "p1\x00TST\x00\np2\x00\n")
	stats, _ = body["stats"].(map[string]any)
	if rr.Code != http.StatusOK || stats["rejected_records"] != float64(1) {
		t.Fatalf("unexpected strict decode: %d %#v", rr.Code, stats)
	}
}

func TestDecodeEndpointRejectsBadOptions(t *testing.T) {
	s := newTestServer(t, stubRunner{})
	for _, q := range []string{"boundary=fields", "strict=maybe", "separator=ab"} {
		rr, _ := serve(t, s, http.MethodPost, "/decode?"+q, "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestDecodeEndpointRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, stubRunner{})
	s.MaxDecodeBody = int64(len(dump) / 2)

	rr, body := serve(t, s, http.MethodPost, "/decode", dump)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d body=%s", rr.Code, rr.Body.String())
	}
	if _, ok := body["records"]; ok {
		t.Fatalf("truncated decode must not return records: %#v", body)
	}

	s.MaxDecodeBody = int64(len(dump))
	if rr, _ := serve(t, s, http.MethodPost, "/decode", dump); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 at the limit, got %d", rr.Code)
	}
}

func TestDecodeEndpointReadFailure(t *testing.T) {
	s := newTestServer(t, stubRunner{})
	body := io.MultiReader(strings.NewReader(dump), iotest.ErrReader(errors.New("client went away")))
	req := httptest.NewRequest(http.MethodPost, "/decode", body)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "client went away") {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, stubRunner{out: dump})
	serve(t, s, http.MethodGet, "/snapshot", "")
	rr, _ := serve(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "lsofctl_decode_records_total") {
		t.Fatalf("expected decode metrics, got %d", rr.Code)
	}
}

func TestAuthTokenGuardsCollection(t *testing.T) {
	cfg := config.DefaultAgentConfig()
	cfg.AuthToken = "s3cret"
	s := newTestServerWithConfig(t, cfg, stubRunner{out: dump})

	if rr, _ := serve(t, s, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rr.Code)
	}
	if rr, _ := serve(t, s, http.MethodGet, "/snapshot", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}
