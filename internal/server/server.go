// Package server exposes the tracker over HTTP: the hourly trigger
// endpoint for the uptime monitor, a JSON read of the current log, health
// and metrics.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gradski-prevoz/tracker/internal/metrics"
	"github.com/gradski-prevoz/tracker/internal/pipeline"
	"github.com/gradski-prevoz/tracker/internal/rotate"
	"github.com/gradski-prevoz/tracker/internal/sheet"
)

// Server holds the HTTP handlers' dependencies
type Server struct {
	pipeline *pipeline.Pipeline
	store    sheet.Store
	metrics  *metrics.Collector
}

// New creates the HTTP surface for the tracker
func New(p *pipeline.Pipeline, store sheet.Store, mc *metrics.Collector) *Server {
	return &Server{pipeline: p, store: store, metrics: mc}
}

// Routes builds the service mux
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/hourly-check", s.handleHourlyCheck)
	mux.HandleFunc("/api/departures", s.handleDepartures)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// handleHourlyCheck runs one pipeline pass and answers with the status
// line. The monitor treats a non-200 or an ERROR prefix as an outage.
func (s *Server) handleHourlyCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := s.pipeline.Run(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !strings.HasPrefix(status, "SUCCESS") {
		w.WriteHeader(http.StatusInternalServerError)
	}
	if _, err := w.Write([]byte(status)); err != nil {
		log.Printf("Failed to write status: %v", err)
	}
}

// departureJSON mirrors the log's column names for frontend consumers
type departureJSON struct {
	Vozilo    string `json:"vozilo"`
	Linija    string `json:"linija"`
	Polazak   string `json:"polazak"`
	Smer      string `json:"smer"`
	Timestamp string `json:"timestamp"`
	Datum     string `json:"datum"`
}

type departuresResponse struct {
	Success    bool            `json:"success"`
	Vehicles   []departureJSON `json:"vehicles"`
	Count      int             `json:"count"`
	LastUpdate string          `json:"lastUpdate,omitempty"`
}

// handleDepartures returns the current day's log as JSON
func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rows, err := s.store.ReadRegion(r.Context(), sheet.CurrentRegion)
	if err != nil {
		log.Printf("Failed to read departures: %v", err)
		http.Error(w, "Failed to read departures", http.StatusInternalServerError)
		return
	}

	resp := departuresResponse{Success: true, Vehicles: []departureJSON{}}
	for _, raw := range rows {
		if rotate.IsMarkerRow(raw) {
			continue
		}
		row := sheet.ParseLogRow(raw)
		if row.Vehicle == "" && row.Line == "" {
			continue
		}
		resp.Vehicles = append(resp.Vehicles, departureJSON{
			Vozilo:    row.Vehicle,
			Linija:    row.Line,
			Polazak:   row.Departure,
			Smer:      row.Direction,
			Timestamp: row.Timestamp,
			Datum:     row.Date,
		})
		resp.LastUpdate = row.Timestamp
	}
	resp.Count = len(resp.Vehicles)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode departures: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
