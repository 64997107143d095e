package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	enrich "github.com/paperpulse/enrich"
	"github.com/paperpulse/enrich/provider"
)

type handler struct {
	engine enrich.Enricher
}

func newHandler(e enrich.Enricher) *handler {
	return &handler{engine: e}
}

// POST /enrich
// Triggers (or reads from cache) one enrichment for a paper.
func (h *handler) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaperID   string `json:"paper_id"`
		SourceURL string `json:"source_url,omitempty"`
		Kind      string `json:"kind"`
		Force     bool   `json:"force,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.PaperID == "" {
		writeError(w, http.StatusBadRequest, "paper_id is required")
		return
	}
	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}
	sourceURL := req.SourceURL
	if sourceURL == "" {
		sourceURL = defaultSourceURL(req.PaperID)
	}

	var opts []enrich.EnrichOption
	if req.Force {
		opts = append(opts, enrich.WithForceRefresh())
	}

	result, err := h.engine.Enrich(r.Context(), req.PaperID, sourceURL, provider.Kind(req.Kind), opts...)
	if err != nil {
		writeEnrichError(w, req.PaperID, req.Kind, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "success",
		"paper_id":      req.PaperID,
		"kind":          req.Kind,
		"provider_used": result.Provider,
		"cached":        result.Cached,
		"content_type":  result.ContentType,
		"generated_at":  result.GeneratedAt.Format(time.RFC3339),
		"artifact":      json.RawMessage(artifactJSON(result)),
	})
}

// GET /papers/{id}/structure
func (h *handler) handleStructure(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, provider.KindStructure)
}

// GET /papers/{id}/analysis
func (h *handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, provider.KindAnalysis)
}

// GET /papers/{id}/thumbnail
// Serves the image bytes directly so the artifact can be used as an <img>
// source.
func (h *handler) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := h.engine.Enrich(r.Context(), id, defaultSourceURL(id), provider.KindThumbnail)
	if err != nil {
		writeEnrichError(w, id, string(provider.KindThumbnail), err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Enrich-Provider", result.Provider)
	if result.Cached {
		w.Header().Set("X-Enrich-Cached", "true")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifact)
}

func (h *handler) serveArtifact(w http.ResponseWriter, r *http.Request, kind provider.Kind) {
	id := r.PathValue("id")
	result, err := h.engine.Enrich(r.Context(), id, defaultSourceURL(id), kind)
	if err != nil {
		writeEnrichError(w, id, string(kind), err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Enrich-Provider", result.Provider)
	if result.Cached {
		w.Header().Set("X-Enrich-Cached", "true")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(result.Artifact)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if h.engine.Store().Degraded() {
		status["cache"] = "degraded"
	}
	writeJSON(w, http.StatusOK, status)
}

// defaultSourceURL maps a bare arXiv-style ID to its abstract page.
func defaultSourceURL(paperID string) string {
	if strings.HasPrefix(paperID, "http://") || strings.HasPrefix(paperID, "https://") {
		return paperID
	}
	return "https://arxiv.org/abs/" + paperID
}

// artifactJSON embeds JSON artifacts verbatim and wraps binary ones as a
// base64 JSON string.
func artifactJSON(result *enrich.Result) []byte {
	if strings.HasPrefix(result.ContentType, "application/json") && json.Valid(result.Artifact) {
		return result.Artifact
	}
	b, err := json.Marshal(result.Artifact)
	if err != nil {
		return []byte("null")
	}
	return b
}

func writeEnrichError(w http.ResponseWriter, paperID, kind string, err error) {
	switch {
	case errors.Is(err, enrich.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, "unknown enrichment kind")
	case errors.Is(err, enrich.ErrRecentlyFailed):
		writeError(w, http.StatusTooManyRequests, "enrichment recently failed, retry later")
	case errors.Is(err, enrich.ErrExhaustedProviders):
		writeError(w, http.StatusBadGateway, "all providers failed")
	default:
		writeError(w, http.StatusInternalServerError, "enrichment failed")
	}
	slog.Error("enrich error", "paper", paperID, "kind", kind, "error", err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s", msg)})
}
