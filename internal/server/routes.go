package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/lsofctl/internal/auth"
	"github.com/danmuck/lsofctl/internal/config"
	"github.com/danmuck/lsofctl/internal/export"
	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxDecodeBody is the default bound on POST /decode request bodies.
const maxDecodeBody = 64 << 20

type fieldInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"source":  s.agent.SourceLabel(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/fields", func(c *gin.Context) {
		fields := lsof.Fields()
		out := make([]fieldInfo, 0, len(fields))
		for _, ft := range fields {
			out = append(out, fieldInfo{Code: ft.Code, Name: ft.Name, Kind: ft.Kind.String()})
		}
		c.JSON(http.StatusOK, gin.H{"fields": out})
	})

	guarded := s.router.Group("/")
	if s.agent.Config().AuthToken != "" {
		guarded.Use(auth.Require(auth.StaticToken{Token: s.agent.Config().AuthToken}))
	}

	guarded.GET("/snapshot", func(c *gin.Context) {
		snap, err := s.agent.Snapshot(c.Request.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, lsof.ErrSourceUnavailable) {
				status = http.StatusBadGateway
			}
			_ = c.Error(err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	guarded.POST("/decode", func(c *gin.Context) {
		opts, err := decodeOptions(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		body := http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxDecodeBody)
		recs, stats, err := s.agent.Decode(body, opts...)
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			_ = c.Error(err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"stats":   export.FromStats(stats),
			"records": export.ToMaps(recs),
		})
	})
}

// decodeOptions reads the boundary, strict, and separator query overrides.
func decodeOptions(c *gin.Context) ([]lsof.Option, error) {
	var opts []lsof.Option
	if raw, ok := c.GetQuery("boundary"); ok {
		b, err := lsof.ParseBoundary(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lsof.WithBoundary(b))
	}
	if raw, ok := c.GetQuery("strict"); ok {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("strict must be a boolean")
		}
		opts = append(opts, lsof.WithStrict(strict))
	}
	if raw, ok := c.GetQuery("separator"); ok {
		sep, err := config.ParseSeparator(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lsof.WithSeparator(sep))
	}
	return opts, nil
}
