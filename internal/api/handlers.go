package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/lights"
)

type BlipRequest struct {
	Color      []float64 `json:"color"`
	DurationMs int       `json:"duration_ms"`
}

type BlendRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type EventRequest struct {
	Value any `json:"value"`
}

func (s *Server) do(c *gin.Context, fn func()) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	if err := s.loop.Do(ctx, fn); err != nil {
		c.JSON(http.StatusServiceUnavailable, Response{Status: "error", Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	data := gin.H{
		"version":  s.version,
		"uptime_s": time.Since(s.start).Seconds(),
	}
	if s.hub != nil {
		data["clients"] = s.hub.Clients()
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: data})
}

func (s *Server) handleState(c *gin.Context) {
	var st lights.State
	if s.do(c, func() { st = s.runner.State() }) {
		c.JSON(http.StatusOK, Response{Status: "success", Data: st})
	}
}

func (s *Server) handleGetBlend(c *gin.Context) {
	var mode color.BlendMode
	if !s.do(c, func() { mode = s.runner.Blend() }) {
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: gin.H{
		"mode":  mode,
		"modes": color.Modes(),
	}})
}

func (s *Server) handleSetBlend(c *gin.Context) {
	var req BlendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid blend request: " + err.Error()})
		return
	}
	mode, err := color.ParseBlendMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: err.Error()})
		return
	}
	if !s.do(c, func() { err = s.runner.SetBlend(mode) }) {
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Message: fmt.Sprintf("blend set to %s", mode)})
}

func (s *Server) handleEvent(c *gin.Context) {
	name := event.Name(c.Param("name"))
	var req EventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid event body: " + err.Error()})
			return
		}
	}
	var listeners int
	if !s.do(c, func() {
		listeners = s.remote.ListenerCount(name)
		s.remote.Emit(name, req.Value)
	}) {
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: gin.H{
		"event":     name,
		"listeners": listeners,
	}})
}

func (s *Server) handleBlip(c *gin.Context) {
	var req BlipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid blip request: " + err.Error()})
			return
		}
	}
	var rgb color.RGB
	if req.Color != nil {
		var err error
		if rgb, err = color.FromSlice(req.Color); err != nil {
			c.JSON(http.StatusBadRequest, Response{Status: "error", Error: err.Error()})
			return
		}
	}
	d := time.Duration(req.DurationMs) * time.Millisecond
	if d < 0 {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "duration_ms must not be negative"})
		return
	}
	var st lights.State
	if s.do(c, func() {
		s.runner.Blip(rgb, d)
		st = s.runner.State()
	}) {
		c.JSON(http.StatusOK, Response{Status: "success", Data: st})
	}
}

// handleStop stops every active program; they leave on the next tick.
func (s *Server) handleStop(c *gin.Context) {
	var n int
	if !s.do(c, func() {
		for _, p := range s.runner.Stack() {
			p.Stop()
			n++
		}
	}) {
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: gin.H{"stopped": n}})
}
