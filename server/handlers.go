package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/spektr-org/sfhousing/render"
	"github.com/spektr-org/sfhousing/report"
)

// ChartSummary lists one chart in /api/charts.
type ChartSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Caption string `json:"caption,omitempty"`
	Empty   bool   `json:"empty"`
}

// ChartsResponse is the body of /api/charts.
type ChartsResponse struct {
	RunID         string         `json:"runId"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Neighborhoods []string       `json:"neighborhoods"`
	Charts        []ChartSummary `json:"charts"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Observations  int    `json:"observations"`
	Neighborhoods int    `json:"neighborhoods"`
	Years         []int  `json:"years"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r)

	var buf bytes.Buffer
	err := render.WritePage(&buf, d, render.PageOptions{
		Available:  s.data.Neighborhoods(),
		ImageLinks: true,
	})
	if err != nil {
		s.lggr.Errorw("Failed to render page", "runID", d.RunID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Observations:  s.data.Len(),
		Neighborhoods: len(s.data.Neighborhoods()),
		Years:         s.data.Years(),
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard(r)
	resp := ChartsResponse{
		RunID:         d.RunID,
		GeneratedAt:   d.GeneratedAt,
		Neighborhoods: d.Neighborhoods,
		Charts:        make([]ChartSummary, 0, len(d.Charts)),
	}
	for _, c := range d.Charts {
		resp.Charts = append(resp.Charts, ChartSummary{
			ID:      c.ID,
			Title:   c.Title,
			Kind:    c.Config.ChartType,
			Caption: c.Caption,
			Empty:   c.Empty(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chart(w, r)
	if !ok {
		return
	}
	format := mux.Vars(r)["format"]

	var buf bytes.Buffer
	err := render.WriteImage(&buf, c.Config, format, s.cfg.Image)
	switch {
	case errors.Is(err, render.ErrEmptyChart):
		writeError(w, http.StatusNotFound, "chart "+c.ID+" has no data")
		return
	case err != nil:
		s.lggr.Errorw("Failed to render image", "chart", c.ID, "format", format, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to render image")
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	_, _ = w.Write(buf.Bytes())
}

// chart looks up the {id} route variable, writing a 404 when it is unknown.
func (s *Server) chart(w http.ResponseWriter, r *http.Request) (report.Chart, bool) {
	id := mux.Vars(r)["id"]
	c, ok := s.dashboard(r).Chart(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown chart "+id)
	}
	return c, ok
}

// ── Helpers ──────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: status})
}
