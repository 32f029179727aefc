package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danmuck/lsofctl/internal/config"
	"github.com/danmuck/lsofctl/internal/export"
	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/danmuck/lsofctl/internal/observability"
	"github.com/danmuck/lsofctl/internal/source"
	"github.com/rs/zerolog"
)

// Source labels used in logs, metrics, and snapshots.
const (
	SourceFile    = "file"
	SourceCommand = "command"
	SourceSSH     = "ssh"
	SourceRequest = "request"
)

// Agent collects lsof output from its configured source and decodes it.
type Agent struct {
	cfg    config.AgentConfig
	runner source.Runner
	logger zerolog.Logger
}

func New(cfg config.AgentConfig, logger zerolog.Logger) *Agent {
	var runner source.Runner = source.LocalRunner{}
	if cfg.SSH.Enabled() {
		runner = source.SSHRunner{
			Host:                        cfg.SSH.Host,
			Port:                        cfg.SSH.Port,
			User:                        cfg.SSH.User,
			KeyPath:                     cfg.SSH.KeyPath,
			Passphrase:                  cfg.SSH.Passphrase(),
			KnownHostsPath:              cfg.SSH.KnownHostsPath,
			InsecureSkipHostKeyChecking: cfg.SSH.InsecureSkipHostKeyChecking,
			Timeout:                     cfg.SSH.Timeout,
		}
	}
	return NewWithRunner(cfg, runner, logger)
}

func NewWithRunner(cfg config.AgentConfig, runner source.Runner, logger zerolog.Logger) *Agent {
	return &Agent{cfg: cfg, runner: runner, logger: logger}
}

func (a *Agent) Config() config.AgentConfig {
	return a.cfg
}

// Options returns the decoder options implied by the configuration.
func (a *Agent) Options() []lsof.Option {
	return []lsof.Option{
		lsof.WithSeparator(a.cfg.Separator),
		lsof.WithStrict(a.cfg.Strict),
		lsof.WithBoundary(a.cfg.Boundary),
	}
}

// SourceLabel names where Open reads from.
func (a *Agent) SourceLabel() string {
	switch {
	case a.cfg.File != "":
		return SourceFile
	case a.cfg.SSH.Enabled():
		return SourceSSH
	default:
		return SourceCommand
	}
}

// Host names the machine whose files are being listed.
func (a *Agent) Host() string {
	if a.cfg.SSH.Enabled() {
		return a.cfg.SSH.Host
	}
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}

// Open starts reading from the configured file or command.
func (a *Agent) Open(ctx context.Context) (io.ReadCloser, error) {
	if a.cfg.File != "" {
		return source.OpenFile(a.cfg.File)
	}
	cmd := source.Command{
		Path:    a.cfg.Command.Path,
		Args:    a.cfg.Command.Args,
		Timeout: a.cfg.Command.Timeout,
	}
	a.logger.Debug().Str("command", cmd.String()).Str("source", a.SourceLabel()).Msg("starting lsof")
	return cmd.Open(ctx, a.runner)
}

// Stream decodes the configured source and hands every record to fn, in
// input order. Only source-unavailable failures and errors from fn are
// returned; a command that exits non-zero after producing output is logged.
func (a *Agent) Stream(ctx context.Context, fn func(lsof.Record) error) (lsof.Stats, error) {
	label := a.SourceLabel()
	rc, err := a.Open(ctx)
	if err != nil {
		return lsof.Stats{}, err
	}

	dec := lsof.NewDecoder(a.Options()...)
	var fnErr error
	for rec := range dec.Records(lsof.Lines(rc)) {
		if fnErr = fn(rec); fnErr != nil {
			break
		}
	}
	a.closeSource(rc, label)

	stats := dec.Stats()
	a.record(label, stats)
	return stats, fnErr
}

// Snapshot collects every record from the configured source.
func (a *Agent) Snapshot(ctx context.Context) (export.Snapshot, error) {
	start := time.Now()
	label := a.SourceLabel()
	var recs []lsof.Record
	stats, err := a.Stream(ctx, func(rec lsof.Record) error {
		recs = append(recs, rec)
		return nil
	})
	observability.RecordSnapshot(label, time.Since(start), err == nil)
	if err != nil {
		a.logger.Error().Err(err).Str("source", label).Msg("snapshot failed")
		return export.Snapshot{}, err
	}
	return export.NewSnapshot(a.Host(), label, a.cfg.Boundary, recs, stats), nil
}

// Decode decodes r with opts layered over the configured options. A read
// failure other than EOF truncates the input, so it is returned alongside
// whatever was decoded before it.
func (a *Agent) Decode(r io.Reader, opts ...lsof.Option) ([]lsof.Record, lsof.Stats, error) {
	dec := lsof.NewDecoder(append(a.Options(), opts...)...)
	tr := &trackingReader{r: r}
	recs := make([]lsof.Record, 0)
	for rec := range dec.Records(lsof.Lines(tr)) {
		recs = append(recs, rec)
	}
	stats := dec.Stats()
	a.record(SourceRequest, stats)
	if tr.err != nil {
		a.logger.Warn().Err(tr.err).Str("source", SourceRequest).Msg("decode input truncated")
		return recs, stats, fmt.Errorf("read %s input: %w", SourceRequest, tr.err)
	}
	return recs, stats, nil
}

// trackingReader remembers the last non-EOF error of the wrapped reader.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

func (a *Agent) closeSource(rc io.Closer, label string) {
	err := rc.Close()
	if err == nil {
		return
	}
	event := a.logger.Warn()
	if !errors.Is(err, source.ErrCommandFailed) {
		event = a.logger.Error()
	}
	event.Err(err).Str("source", label).Msg("source close reported an error")
}

func (a *Agent) record(label string, stats lsof.Stats) {
	observability.RecordDecode(label, stats)
	event := a.logger.Debug()
	if stats.SkippedLines > 0 || stats.RejectedRecords > 0 || stats.MalformedFields > 0 {
		event = a.logger.Warn()
	}
	event.
		Str("source", label).
		Int("lines", stats.Lines).
		Int("records", stats.Records).
		Int("skipped_lines", stats.SkippedLines).
		Int("rejected_records", stats.RejectedRecords).
		Int("unknown_fields", stats.UnknownFields).
		Int("malformed_fields", stats.MalformedFields).
		Msg("decode finished")
}
