package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/lsofctl/internal/agent"
	"github.com/danmuck/lsofctl/internal/config"
	"github.com/danmuck/lsofctl/internal/export"
	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/danmuck/lsofctl/internal/observability"
	"github.com/danmuck/lsofctl/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to lsofctl TOML config")
	file := flag.String("file", "", "decode a saved lsof -F dump instead of running lsof (- for stdin)")
	serve := flag.Bool("serve", false, "serve snapshots over HTTP")
	initConfig := flag.String("init-config", "", "write a default config to this path and exit")
	force := flag.Bool("force", false, "overwrite an existing config with -init-config")
	boundary := flag.String("boundary", "", "record boundary: line|repeat")
	separator := flag.String("separator", "", "field separator: nul|space|tab|<char>")
	strict := flag.Bool("strict", false, "reject records containing malformed fields")
	flag.Parse()

	logger := observability.InitLogger("lsofctl")

	if *initConfig != "" {
		if err := config.WriteTemplate(*initConfig, *force); err != nil {
			log.Fatal().Err(err).Msg("failed to write config template")
		}
		log.Info().Str("path", *initConfig).Msg("wrote config template")
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg, err = applyOverrides(cfg, overrides{
		File:      *file,
		Boundary:  *boundary,
		Separator: *separator,
		Strict:    *strict,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	a := agent.New(cfg, logger)
	if *serve {
		if err := server.Appear(a).Serve(); err != nil {
			log.Fatal().Err(err).Msg("lsofctl stopped")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := writeRecords(ctx, a); err != nil {
		if errors.Is(err, lsof.ErrSourceUnavailable) {
			log.Fatal().Err(err).Str("source", a.SourceLabel()).Msg("source unavailable")
		}
		log.Fatal().Err(err).Msg("decode failed")
	}
}

func loadConfig(path string) (config.AgentConfig, error) {
	if path == "" {
		return config.DefaultAgentConfig(), nil
	}
	cfg, err := config.LoadAgentConfig(path)
	if err != nil {
		return config.AgentConfig{}, err
	}
	log.Info().Str("path", path).Msg("loaded lsofctl config")
	return cfg, nil
}

// writeRecords streams every decoded record to stdout as JSON lines.
func writeRecords(ctx context.Context, a *agent.Agent) error {
	out := bufio.NewWriter(os.Stdout)
	jw := export.NewJSONLinesWriter(out)
	stats, err := a.Stream(ctx, jw.Write)
	if err != nil {
		return err
	}
	log.Debug().Int("records", stats.Records).Int("written", jw.Count()).Msg("decode complete")
	return out.Flush()
}
