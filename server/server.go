// Package server exposes the period renderer over HTTP and WebSocket.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/NJonasFigge/fadable-calendar/calendar"
	"github.com/NJonasFigge/fadable-calendar/config"
	"github.com/NJonasFigge/fadable-calendar/internal/httpclient"
	"github.com/NJonasFigge/fadable-calendar/period"
	"github.com/NJonasFigge/fadable-calendar/widget"
)

// Server wires the period store, widgets, render layer and refresh
// scheduler behind an HTTP API.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	location *time.Location
	client   *httpclient.Client
	hub      *Hub
	router   *mux.Router
	widgets  []widget.Widget
	cron     *cron.Cron

	mu    sync.RWMutex
	store *period.Store
}

// New creates a Server from the given configuration. The store starts
// empty; call Refresh to load the configured sources.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	store, err := period.NewStore(nil, cfg.StartOfWeek)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		location: loc,
		client:   httpclient.New(nil, logger),
		hub:      NewHub(logger),
		widgets:  widget.Defaults(),
		store:    store,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/period", s.handlePeriod).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	if cfg.FrontendDir != "" {
		// Registered last so it never shadows the API routes.
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.FrontendDir)))
	}
	s.router = r

	return s, nil
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler { return s.router }

// Refresh fetches every configured source, rebuilds the period store and
// notifies connected WebSocket clients. Sources that fail to fetch or
// decode are skipped so one broken feed never empties the view.
func (s *Server) Refresh(ctx context.Context) error {
	var calendars []calendar.Calendar

	for _, src := range s.cfg.Sources {
		body, err := s.client.Fetch(ctx, src.URL)
		if err != nil {
			s.logger.Error("source fetch failed", "id", src.ID, "error", err)
			continue
		}
		cal, err := calendar.Decode(bytes.NewReader(body), src.Name)
		if err != nil {
			s.logger.Error("source decode failed", "id", src.ID, "error", err)
			continue
		}
		if src.Color != "" {
			cal.Color = src.Color
		}
		calendars = append(calendars, *cal)
		s.logger.Info("source loaded", "id", src.ID, "events", len(cal.Events))
	}

	store, err := period.NewStore(calendars, s.cfg.StartOfWeek)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	s.hub.Broadcast(`{"event":"refresh"}`)
	return nil
}

// StartRefreshScheduler begins the cron-driven source refresh.
func (s *Server) StartRefreshScheduler() error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("scheduled refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the refresh scheduler and closes WebSocket connections.
func (s *Server) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.hub.CloseAll()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	stats := s.store.Stats()
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"calendars": stats.Calendars,
		"periods":   stats.CachedPeriods,
	})
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	around := time.Now().In(s.location)
	if v := r.URL.Query().Get("around"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, s.location)
		if err != nil {
			http.Error(w, "invalid around date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		around = parsed
	}

	typ := period.Type(s.cfg.PeriodType)
	if v := r.URL.Query().Get("type"); v != "" {
		typ = period.Type(v)
		if !typ.Valid() {
			http.Error(w, "invalid period type, want week, month or year", http.StatusBadRequest)
			return
		}
	}

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	p, err := store.Get(typ, around)
	if err != nil {
		s.logger.Error("period lookup failed", "type", typ, "error", err)
		http.Error(w, "failed to build period", http.StatusInternalServerError)
		return
	}
	for _, d := range p.Diagnostics() {
		s.logger.Warn("event skipped during expansion",
			"uid", d.UID, "calendar", d.CalendarName, "error", d.Err)
	}

	results := make([]widget.Result, 0, len(s.widgets))
	for _, wdg := range s.widgets {
		res, err := widget.Evaluate(wdg, p, store, s.cfg.Lookback)
		if err != nil {
			s.logger.Error("widget evaluation failed", "widget", wdg.Name(), "error", err)
			continue
		}
		results = append(results, res)
	}

	html, err := renderPeriod(p, results, time.Now().In(s.location))
	if err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, "failed to render period", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
