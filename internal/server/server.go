package server

import (
	"time"

	"github.com/danmuck/lsofctl/internal/agent"
	"github.com/danmuck/lsofctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Server exposes an Agent over HTTP.
type Server struct {
	ID       string
	Addr     string
	Appeared time.Time
	// MaxDecodeBody bounds POST /decode request bodies in bytes.
	MaxDecodeBody int64

	agent  *agent.Agent
	router *gin.Engine
}

func Appear(a *agent.Agent) *Server {
	cfg := a.Config()
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		ID:            cfg.ID,
		Addr:          cfg.Addr,
		Appeared:      time.Now(),
		MaxDecodeBody: maxDecodeBody,
		agent:         a,
		router:        r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	log.Info().Str("id", s.ID).Str("addr", s.Addr).Str("source", s.agent.SourceLabel()).Msg("lsofctl serving")
	return s.router.Run(s.Addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
