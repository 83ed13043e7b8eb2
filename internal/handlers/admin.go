package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"feedback-bot/internal/models"
	"feedback-bot/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FeedbackLister is the read side of the record store the admin API needs.
// *repository.FeedbackRepo satisfies it.
type FeedbackLister interface {
	FindPage(ctx context.Context, filter repository.ListFilter, limit, offset int64) ([]models.Feedback, error)
	Count(ctx context.Context, filter repository.ListFilter) (int64, error)
}

type AdminHandler struct {
	lister    FeedbackLister
	jwtSecret string
	apiSecret string
	pageSize  int64
	log       *logrus.Logger
}

func NewAdminHandler(lister FeedbackLister, jwtSecret, apiSecret string, pageSize int64, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		lister:    lister,
		jwtSecret: jwtSecret,
		apiSecret: apiSecret,
		pageSize:  pageSize,
		log:       log,
	}
}

type LoginRequest struct {
	Secret string `json:"secret"`
}

// --- POST /admin/login ---

// Login exchanges the configured operator secret for a JWT. There is a
// single operator identity; there are no user accounts.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Secret == "" || subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.apiSecret)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid secret"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"jti": uuid.New().String(),
		"exp": time.Now().Add(30 * 24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.log.Errorf("Error signing JWT: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

// --- GET /admin/feedback ---

// ListFeedback is the REST mirror of the chat listing: same predicates,
// same pagination math, same clamping.
func (h *AdminHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := parseListQuery(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	// Malformed or missing page defaults to 1.
	page := int64(1)
	if p, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && p > 0 {
		page = p
	}

	count, err := h.lister.Count(r.Context(), filter)
	if err != nil {
		h.log.Errorf("Error counting feedback: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	totalPages := repository.TotalPages(count, h.pageSize)
	page = repository.ClampPage(page, totalPages)

	entries, err := h.lister.FindPage(r.Context(), filter, h.pageSize, (page-1)*h.pageSize)
	if err != nil {
		h.log.Errorf("Error listing feedback: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if entries == nil {
		entries = []models.Feedback{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       entries,
		"page":        page,
		"total_count": count,
		"total_pages": totalPages,
	})
}

func parseListQuery(r *http.Request) (repository.ListFilter, string) {
	var filter repository.ListFilter
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		t := models.FeedbackType(v)
		if !t.Valid() {
			return filter, "invalid feedback type"
		}
		filter.Type = t
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, "invalid from date, expected YYYY-MM-DD"
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, "invalid to date, expected YYYY-MM-DD"
		}
		// Inclusive of the whole end day, sub-second timestamps included.
		filter.To = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return filter, ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
