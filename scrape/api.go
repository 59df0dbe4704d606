package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bidintel/bidwatch/scrape/internal/store"
)

// Handler returns the run-trigger and query HTTP surface. Runs started
// here execute in the background; callers poll /api/runs/status.
func (s *Scraper) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/runs", s.handleStartRun)
	r.Get("/api/runs/status", s.handleStatus)
	r.Post("/api/runs/stop", s.handleStopRun)
	r.Get("/api/runs/log", s.handleRunLog)
	r.Get("/api/notices", s.handleNotices)
	r.Get("/api/awards", s.handleAwards)
	r.Get("/api/stats", s.handleStats)
	return r
}

func (s *Scraper) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var opts RunOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if opts.Kind == "" {
		opts.Kind = KindAwards
	}
	if !opts.Kind.valid() {
		writeError(w, http.StatusBadRequest, "kind must be notices or awards")
		return
	}

	s.mu.Lock()
	busy := s.running
	s.mu.Unlock()
	if busy {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}

	go func() {
		// Detached from the request: the run outlives the HTTP call.
		if _, err := s.Run(context.Background(), opts); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.log.Error("scrape: api run failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"started": true, "kind": opts.Kind})
}

func (s *Scraper) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Status())
}

func (s *Scraper) handleStopRun(w http.ResponseWriter, _ *http.Request) {
	stopped := s.Stop()
	writeJSON(w, map[string]bool{"stopped": stopped})
}

func (s *Scraper) handleRunLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := s.store.RecentRunLogs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"runs": logs})
}

func (s *Scraper) handleNotices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.NoticeFilter{
		Classification: q.Get("classification"),
		Category:       q.Get("category"),
		Status:         q.Get("status"),
		Search:         q.Get("q"),
	}
	f.DateFrom = queryMillis(q.Get("date_from"))
	f.DateTo = queryMillis(q.Get("date_to"))
	f.MinBudget = queryFloat(q.Get("min_budget"))
	f.MaxBudget = queryFloat(q.Get("max_budget"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	notices, total, err := s.store.QueryNotices(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"total": total, "notices": notices})
}

func (s *Scraper) handleAwards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AwardFilter{
		Classification:  q.Get("classification"),
		Category:        q.Get("category"),
		Awardee:         q.Get("awardee"),
		ProcuringEntity: q.Get("procuring_entity"),
		Search:          q.Get("q"),
	}
	f.DateFrom = queryMillis(q.Get("date_from"))
	f.DateTo = queryMillis(q.Get("date_to"))
	f.MinBudget = queryFloat(q.Get("min_budget"))
	f.MaxBudget = queryFloat(q.Get("max_budget"))
	f.MinAmount = queryFloat(q.Get("min_amount"))
	f.MaxAmount = queryFloat(q.Get("max_amount"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	awards, total, err := s.store.QueryAwards(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"total": total, "awards": awards})
}

func (s *Scraper) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, st)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// queryMillis parses an epoch-milliseconds query parameter.
func queryMillis(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
