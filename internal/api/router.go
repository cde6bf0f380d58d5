// Package api exposes the light runner over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/lights"
	"github.com/coreman2200/puckglow/internal/ws"
)

// Doer runs fn on the goroutine that owns the runner and waits for it.
type Doer interface {
	Do(ctx context.Context, fn func()) error
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type Server struct {
	loop    Doer
	runner  *lights.Runner
	remote  *event.Emitter
	hub     *ws.Hub
	log     zerolog.Logger
	start   time.Time
	version string
	timeout time.Duration
}

// NewServer serves runner. Events posted to /events/:name are emitted on
// remote; hub may be nil when no preview is wired.
func NewServer(loop Doer, runner *lights.Runner, remote *event.Emitter, hub *ws.Hub, log zerolog.Logger) *Server {
	return &Server{
		loop:    loop,
		runner:  runner,
		remote:  remote,
		hub:     hub,
		log:     log,
		start:   time.Now(),
		version: "1.0.0",
		timeout: 2 * time.Second,
	}
}

func (s *Server) SetupRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
	r.GET("/state", s.handleState)
	r.GET("/blend", s.handleGetBlend)
	r.PUT("/blend", s.handleSetBlend)
	r.POST("/events/:name", s.handleEvent)
	r.POST("/blip", s.handleBlip)
	r.POST("/stop", s.handleStop)
	if s.hub != nil {
		r.GET("/ws", gin.WrapF(s.hub.HandleFrames))
	}
}

// NewRouter returns a gin engine with recovery, open CORS and the routes of
// s. Preview pages are served from anywhere.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
	s.SetupRoutes(r)
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		begin := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(begin)).
			Msg("http")
	}
}
