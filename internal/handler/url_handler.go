package handler

import (
	"encoding/json"
	"html"
	"net/http"
	"time"

	"github.com/urlclick/shortener/internal/errors"
	"github.com/urlclick/shortener/internal/middleware"
	"github.com/urlclick/shortener/internal/model"
	"github.com/urlclick/shortener/internal/service"
)

// URLHandler handles HTTP requests for URL operations
type URLHandler struct {
	service *service.URLService
}

// NewURLHandler creates a new handler instance
func NewURLHandler(svc *service.URLService) *URLHandler {
	return &URLHandler{service: svc}
}

// ============ HANDLERS ============

// HandleShorten creates a new short URL
// POST /url/shorten
func (h *URLHandler) HandleShorten(w http.ResponseWriter, r *http.Request) {
	var req model.CreateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.InvalidJSON(err.Error()).WriteJSON(w)
		return
	}

	if req.LongURL == "" {
		errors.MissingField("long_url").WriteJSON(w)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			errors.BadRequest("expiresAt must be an RFC 3339 timestamp").WriteJSON(w)
			return
		}
		expiresAt = &t
	}

	resp, err := h.service.CreateShortURL(r.Context(), req.LongURL, expiresAt)
	if err != nil {
		switch err {
		case service.ErrEmptyURL:
			errors.MissingField("long_url").WriteJSON(w)
		case service.ErrDuplicateLongURL:
			errors.DuplicateActiveURL(req.LongURL).WriteJSON(w)
		default:
			errors.StoreError().WriteJSON(w)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// HandleRedirect redirects to the original URL and records the click
// GET /url/{short_code}
func (h *URLHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortCode := r.PathValue("short_code")

	visitor := service.Visitor{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	target, err := h.service.Resolve(r.Context(), shortCode, visitor)
	if err != nil {
		if err == service.ErrURLNotFound {
			errors.URLNotFound(shortCode).WriteJSON(w)
			return
		}
		errors.StoreError().WriteJSON(w)
		return
	}

	// Targets are stored escaped; decode entities before redirecting
	http.Redirect(w, r, html.UnescapeString(target), http.StatusFound)
}

// HandleStats returns the stored mapping including its click count
// GET /url/{short_code}/stats
func (h *URLHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	shortCode := r.PathValue("short_code")

	stats, err := h.service.GetURLStats(r.Context(), shortCode)
	if err != nil {
		if err == service.ErrURLNotFound {
			errors.URLNotFound(shortCode).WriteJSON(w)
			return
		}
		errors.StoreError().WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// HandleHealth returns service health status
// GET /health
func (h *URLHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

// ============ ROUTER SETUP ============

// SetupRoutes configures all HTTP routes
func (h *URLHandler) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /url/shorten", h.HandleShorten)
	mux.HandleFunc("GET /url/{short_code}/stats", h.HandleStats)
	mux.HandleFunc("GET /url/{short_code}", h.HandleRedirect)
	mux.HandleFunc("GET /health", h.HandleHealth)

	return mux
}
