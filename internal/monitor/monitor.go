// Package monitor serves a read-only HTTP view of a running server: the
// current frame as JSON, a WebSocket stream of transmitted frames, Prometheus
// metrics and a health check.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oxabz/my-ambilight/internal/arbiter"
	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/oxabz/my-ambilight/internal/logging"
	"github.com/oxabz/my-ambilight/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds the monitor configuration
type Config struct {
	Listen  string // e.g. "127.0.0.1:8080"
	ID      string // server instance id
	Buffer  *leds.Buffer
	Arbiter *arbiter.Arbiter
	Metrics *metrics.Metrics
}

// Monitor is the HTTP monitoring endpoint.
type Monitor struct {
	config   Config
	router   chi.Router
	hub      *hub
	server   *http.Server
	listener net.Listener
	started  time.Time
}

// FrameView is the JSON form of the strip state.
type FrameView struct {
	ID           string     `json:"id"`
	LEDCount     int        `json:"led_count"`
	ActiveDevice *int       `json:"active_device"`
	Pixels       [][3]uint8 `json:"pixels"`
	Transmit     *Transmit  `json:"transmit,omitempty"`
}

// Transmit describes the cycle a streamed frame came from.
type Transmit struct {
	DurationMicros int64  `json:"duration_us"`
	PulsePairs     int    `json:"pulse_pairs"`
	Error          string `json:"error,omitempty"`
}

// New builds the monitor's router. It does not listen until Start.
func New(config Config) *Monitor {
	m := &Monitor{
		config:  config,
		hub:     newHub(),
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", m.handleHealth)
	r.Get("/frame", m.handleFrame)
	r.Get("/ws", m.handleWebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(config.Metrics.Gatherer(), promhttp.HandlerOpts{}))

	m.router = r
	return m
}

// Handler returns the monitor's HTTP handler
func (m *Monitor) Handler() http.Handler {
	return m.router
}

// Start listens on the configured address and serves in the background.
func (m *Monitor) Start() error {
	listener, err := net.Listen("tcp", m.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen for monitor on %s: %w", m.config.Listen, err)
	}
	m.listener = listener
	m.server = &http.Server{
		Handler:           m.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.Info("Monitor listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Monitor stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listening address, or nil before Start.
func (m *Monitor) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Shutdown stops the HTTP server and closes all WebSocket clients.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.hub.closeAll()
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// FrameTransmitted implements leds.Observer by streaming the frame to
// WebSocket clients.
func (m *Monitor) FrameTransmitted(snapshot []byte, frame *leds.Frame, took time.Duration, err error) {
	if m.hub.count() == 0 {
		return
	}
	view := m.view(snapshot)
	view.Transmit = &Transmit{DurationMicros: took.Microseconds()}
	if frame != nil {
		view.Transmit.PulsePairs = frame.Len()
	}
	if err != nil {
		view.Transmit.Error = err.Error()
	}
	data, jerr := json.Marshal(view)
	if jerr != nil {
		logging.Error("Failed to encode frame", zap.Error(jerr))
		return
	}
	m.hub.broadcast(data)
}

func (m *Monitor) view(snapshot []byte) FrameView {
	view := FrameView{
		ID:       m.config.ID,
		LEDCount: len(snapshot) / 3,
		Pixels:   make([][3]uint8, len(snapshot)/3),
	}
	for i := range view.Pixels {
		copy(view.Pixels[i][:], snapshot[i*3:i*3+3])
	}
	if m.config.Arbiter != nil {
		if d, ok := m.config.Arbiter.Active(); ok {
			id := int(d)
			view.ActiveDevice = &id
		}
	}
	return view
}

func (m *Monitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"id":     m.config.ID,
		"uptime": time.Since(m.started).Round(time.Second).String(),
	})
}

func (m *Monitor) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.view(m.config.Buffer.Snapshot()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug("HTTP request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

var _ leds.Observer = (*Monitor)(nil)
