// Package api exposes conversion runs over HTTP: submit a conversion,
// list past runs and render a quick run-history chart.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/meshforge/internal/recon"
	"github.com/banshee-data/meshforge/internal/storage"
)

// ConvertRequest is the POST /api/convert payload.
type ConvertRequest struct {
	Inputs     []string `json:"inputs"`
	OutputDir  string   `json:"output_dir,omitempty"`
	OutputName string   `json:"output_name,omitempty"`
}

// Server wires the converter and the run store into an HTTP API.
type Server struct {
	db     *storage.DB
	params recon.Params
}

// NewServer creates a server recording runs in db. The db may be nil;
// conversion still works but nothing is recorded.
func NewServer(db *storage.DB, params recon.Params) *Server {
	return &Server{db: db, params: params}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/convert", s.convertHandler)
	mux.HandleFunc("/api/runs", s.listRunsHandler)
	mux.HandleFunc("/charts/runs", s.runsChartHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("meshforge conversion server"))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "meshforge", "timestamp": "%s"}`,
		time.Now().UTC().Format(time.RFC3339))
}

func (s *Server) convertHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs is required", http.StatusBadRequest)
		return
	}

	conv := recon.NewConverter(s.params, nil)
	result := conv.Convert(req.Inputs, req.OutputDir, req.OutputName)

	if s.db != nil {
		if _, err := s.db.RecordRun(strings.Join(req.Inputs, ","), result); err != nil {
			log.Printf("[API] failed to record run: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !result.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(result)
}

func (s *Server) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.db == nil {
		http.Error(w, "run history is not enabled", http.StatusNotFound)
		return
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}
	runs, err := s.db.ListRuns(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// runsChartHandler renders a bar chart of final mesh sizes per
// recorded run. Debugging convenience alongside /api/runs.
func (s *Server) runsChartHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "run history is not enabled", http.StatusNotFound)
		return
	}
	runs, err := s.db.ListRuns(50)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}

	names := make([]string, 0, len(runs))
	triangles := make([]opts.BarData, 0, len(runs))
	vertices := make([]opts.BarData, 0, len(runs))
	// ListRuns is newest first; chart oldest to newest.
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		name := run.ID
		if len(name) > 8 {
			name = name[:8]
		}
		names = append(names, name)
		triangles = append(triangles, opts.BarData{Value: run.FinalTriangles})
		vertices = append(vertices, opts.BarData{Value: run.FinalVertices})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "meshforge runs",
			Subtitle: "final mesh size per conversion run",
		}),
	)
	bar.SetXAxis(names).
		AddSeries("triangles", triangles).
		AddSeries("vertices", vertices)
	if err := bar.Render(w); err != nil {
		log.Printf("[API] chart render failed: %v", err)
	}
}
