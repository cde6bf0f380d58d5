package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/led"
	"github.com/coreman2200/puckglow/internal/lights"
	"github.com/coreman2200/puckglow/internal/sched"
	"github.com/coreman2200/puckglow/internal/ws"
)

// inline runs work on the calling goroutine; tests never advance time
// concurrently.
type inline struct{ err error }

func (i inline) Do(_ context.Context, fn func()) error {
	if i.err != nil {
		return i.err
	}
	fn()
	return nil
}

type fixture struct {
	v      *sched.Virtual
	runner *lights.Runner
	remote *event.Emitter
	router *gin.Engine
}

func newFixture(t *testing.T, loop Doer) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v := sched.NewVirtual()
	r, err := lights.NewRunner(v, led.NewSim(zerolog.Nop()), lights.Options{})
	require.NoError(t, err)
	remote := &event.Emitter{}
	s := NewServer(loop, r, remote, ws.NewHub(zerolog.Nop()), zerolog.Nop())
	return &fixture{v: v, runner: r, remote: remote, router: NewRouter(s)}
}

func (f *fixture) call(t *testing.T, method, path, body string) (int, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	f := newFixture(t, inline{})
	code, resp := f.call(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "1.0.0", data["version"])
	assert.Equal(t, 0.0, data["clients"])
}

func TestEventActivatesWhenProgram(t *testing.T) {
	f := newFixture(t, inline{})
	p := f.runner.Steady(1).Color(color.Green).For(time.Second).When(f.remote, "wheel")

	code, resp := f.call(t, http.MethodPost, "/events/wheel", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, resp.Data.(map[string]any)["listeners"])
	assert.True(t, p.Active())

	f.v.Advance(100 * time.Millisecond)
	code, resp = f.call(t, http.MethodGet, "/state", "")
	assert.Equal(t, http.StatusOK, code)
	st := resp.Data.(map[string]any)
	assert.Equal(t, true, st["running"])
	assert.Equal(t, []any{0.0, 1.0, 0.0}, st["color"])
}

func TestEventPayload(t *testing.T) {
	f := newFixture(t, inline{})
	var got any
	f.remote.On("notch", func(ev event.Event) { got = ev.Value })

	code, _ := f.call(t, http.MethodPost, "/events/notch", `{"value":3}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3.0, got)

	code, resp := f.call(t, http.MethodPost, "/events/notch", `{"value":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)
}

func TestBlipAndStop(t *testing.T) {
	f := newFixture(t, inline{})

	code, resp := f.call(t, http.MethodPost, "/blip", `{"color":[0,0,1],"duration_ms":500}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"blip"}, resp.Data.(map[string]any)["stack"])

	f.v.Advance(50 * time.Millisecond)
	assert.Equal(t, color.Blue, f.runner.Color())

	code, resp = f.call(t, http.MethodPost, "/stop", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, resp.Data.(map[string]any)["stopped"])
	f.v.Advance(50 * time.Millisecond)
	assert.False(t, f.runner.Running())

	code, _ = f.call(t, http.MethodPost, "/blip", `{"color":[1,1]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.call(t, http.MethodPost, "/blip", `{"duration_ms":-5}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBlend(t *testing.T) {
	f := newFixture(t, inline{})

	code, resp := f.call(t, http.MethodPut, "/blend", `{"mode":"add"}`)
	assert.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, color.Add, f.runner.Blend())

	code, resp = f.call(t, http.MethodGet, "/blend", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "add", resp.Data.(map[string]any)["mode"])

	code, _ = f.call(t, http.MethodPut, "/blend", `{"mode":"overlay"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.call(t, http.MethodPut, "/blend", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoopUnavailable(t *testing.T) {
	f := newFixture(t, inline{err: errors.New("loop stopped")})
	code, resp := f.call(t, http.MethodGet, "/state", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "loop stopped", resp.Error)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, inline{})
	req := httptest.NewRequest(http.MethodOptions, "/blip", nil)
	req.Header.Set("Origin", "http://preview.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
