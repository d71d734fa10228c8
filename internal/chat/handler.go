package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"health-chatbot/internal/chatbot"
)

// ReportRenderer produces the downloadable statistics report.
type ReportRenderer interface {
	RenderStatsPDF(s Stats) ([]byte, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc     Service
	reports ReportRenderer
	db      HealthChecker
}

// NewHandler builds the HTTP handlers. reports and db may be nil.
func NewHandler(svc Service, reports ReportRenderer, db HealthChecker) *Handler {
	return &Handler{svc: svc, reports: reports, db: db}
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Type        chatbot.Kind           `json:"type"`
	Message     string                 `json:"message"`
	SessionID   string                 `json:"session_id"`
	Keyword     string                 `json:"keyword,omitempty"`
	Disease     *chatbot.DiseaseRecord `json:"disease,omitempty"`
	Diseases    []string               `json:"diseases,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

// NewChatResponse flattens a reply into its wire form.
func NewChatResponse(reply *Reply) ChatResponse {
	resp := ChatResponse{
		Type:      reply.Result.Kind(),
		Message:   reply.Message,
		SessionID: reply.SessionID.String(),
	}
	switch v := reply.Result.(type) {
	case chatbot.Emergency:
		resp.Keyword = v.Keyword
	case chatbot.Help:
		resp.Diseases = v.Diseases
	case chatbot.DiseaseInfo:
		rec := v.Record
		resp.Disease = &rec
	case chatbot.NotFound:
		resp.Suggestions = v.Suggestions
	}
	return resp
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	// Unknown or malformed session ids start a new session.
	sid, err := uuid.Parse(req.SessionID)
	if err != nil {
		sid = uuid.New()
	}

	reply, err := h.svc.HandleMessage(r.Context(), sid, req.Message)
	if errors.Is(err, ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "Empty message")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Processing failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, NewChatResponse(reply))
}

func (h *Handler) ListDiseases(w http.ResponseWriter, r *http.Request) {
	diseases, err := h.svc.Diseases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diseases)
}

func (h *Handler) GetDisease(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid disease name")
		return
	}

	d, err := h.svc.Disease(r.Context(), name)
	if errors.Is(err, ErrDiseaseNotFound) {
		writeError(w, http.StatusNotFound, "Disease not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) StatsReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Reports are not configured")
		return
	}

	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pdf, err := h.reports.RenderStatsPDF(*stats)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Report failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="health-stats.pdf"`)
	w.Write(pdf)
}

func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ReloadCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"diseases": n})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"db":     "unhealthy: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "ok"})
}

// RegisterRoutes mounts the chat API; callers usually nest it under /api.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.Chat)
	r.Get("/diseases", h.ListDiseases)
	r.Get("/diseases/{name}", h.GetDisease)
	r.Get("/stats", h.Stats)
	r.Get("/stats/report.pdf", h.StatsReport)
	r.Post("/catalog/reload", h.ReloadCatalog)
}

func RegisterHealthRoutes(r chi.Router, h *Handler) {
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
