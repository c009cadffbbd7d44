// Package httpadapter exposes the admin collection API.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/ports"
	"github.com/anshin-navi/discovery/internal/observability/metrics"
)

const defaultScoutResults = 20

type Router struct {
	scouter  ports.AreaScouter
	diver    ports.DeepDiveRequester
	enricher ports.CandidateEnricher
	reader   ports.CandidateReader
	metrics  *metrics.HTTPServerMetrics
	service  string
}

func NewRouter(
	scouter ports.AreaScouter,
	diver ports.DeepDiveRequester,
	enricher ports.CandidateEnricher,
	reader ports.CandidateReader,
	httpMetrics *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		scouter:  scouter,
		diver:    diver,
		enricher: enricher,
		reader:   reader,
		metrics:  httpMetrics,
		service:  service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/admin/collect", rt.collectArea)
	mux.HandleFunc("/v1/admin/candidates", rt.listCandidates)
	mux.HandleFunc("/v1/admin/candidates/deep-dive", rt.requestDeepDive)
	mux.HandleFunc("/v1/admin/candidates/enrich", rt.enrichCandidate)
	mux.HandleFunc("/v1/admin/candidates/", rt.getCandidateByID)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// collectArea runs a full scout pass synchronously and reports how many
// candidates it attempted versus saved. Partial success is normal; the
// per-query failure count lands in the job record.
func (rt *Router) collectArea(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Area       string   `json:"area"`
		MaxResults int      `json:"max_results"`
		Lat        *float64 `json:"lat"`
		Lng        *float64 `json:"lng"`
		RadiusM    float64  `json:"radius_m"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Area) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "area is required"})
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultScoutResults
	}
	var bias *domain.GeoBias
	if req.Lat != nil && req.Lng != nil {
		bias = &domain.GeoBias{Lat: *req.Lat, Lng: *req.Lng, RadiusMeters: req.RadiusM}
	}

	job, err := rt.scouter.CollectArea(r.Context(), req.Area, req.MaxResults, bias)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordScoutRun(rt.service, string(job.Status), job.SavedCount, job.FailedCount)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"job_id":    job.ID,
		"status":    job.Status,
		"attempted": job.CollectedCount,
		"saved":     job.SavedCount,
		"failed":    job.FailedCount,
	})
}

func (rt *Router) requestDeepDive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	candidateID, ok := decodeCandidateID(w, r)
	if !ok {
		return
	}

	if err := rt.diver.Request(r.Context(), candidateID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":      true,
		"status":       "queued",
		"candidate_id": candidateID,
	})
}

func (rt *Router) enrichCandidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	candidateID, ok := decodeCandidateID(w, r)
	if !ok {
		return
	}

	candidate, err := rt.enricher.Enrich(r.Context(), candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (rt *Router) listCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	status := domain.CandidateStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusPending
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	list, err := rt.reader.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []domain.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": list,
		"count":      len(list),
	})
}

func (rt *Router) getCandidateByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/admin/candidates/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "candidate id is required"})
		return
	}

	candidate, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func decodeCandidateID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		CandidateID string `json:"candidate_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return "", false
	}
	if strings.TrimSpace(req.CandidateID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "candidate_id is required"})
		return "", false
	}
	return req.CandidateID, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
