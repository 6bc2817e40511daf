package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/build-flow-labs/atlas/internal/atlas/report"
)

type overviewData struct {
	Title   string
	Count   int
	Entries []IndexEntry
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.index.List())
}

func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	g, err := s.index.Get(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data, err := s.gen.Generate(g, "")
	if err != nil {
		s.logger.Error("generating report", "name", r.PathValue("name"), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report.BuildJSON(data))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ui/" {
		http.Redirect(w, r, "/ui", http.StatusMovedPermanently)
		return
	}

	data := overviewData{
		Title:   "Pipelines",
		Count:   s.index.Count(),
		Entries: s.index.List(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := overviewTmpl.ExecuteTemplate(w, "overview", data); err != nil {
		s.logger.Error("rendering overview", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	g, err := s.index.Get(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	page, err := s.gen.HTML(g, "")
	if err != nil {
		s.logger.Error("rendering report", "name", r.PathValue("name"), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}
