package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/gartstein/directory/internal/directory/browse"
	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

const companyNotFound = "Company not found"

// RESTHandler serves the JSON API under /api.
type RESTHandler struct {
	service  DirectoryController
	decoder  *schema.Decoder
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRESTHandler constructs a RESTHandler with the given service and logger.
func NewRESTHandler(service DirectoryController, logger *zap.Logger) *RESTHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &RESTHandler{
		service:  service,
		decoder:  decoder,
		validate: validator.New(),
		logger:   logger.Named("rest_handler"),
	}
}

// Register mounts the routes on mux.
func (h *RESTHandler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		pattern string
		handler runtime.HandlerFunc
	}{
		{"/api/companies", h.ListCompanies},
		{"/api/companies/{id}", h.GetCompany},
		{"/api/browse", h.Browse},
		{"/healthz", h.Health},
	}
	for _, r := range routes {
		if err := mux.HandlePath(http.MethodGet, r.pattern, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// ListCompanies answers GET /api/companies. It always replies 200; an
// unavailable store produces an empty array.
func (h *RESTHandler) ListCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		h.logger.Error("list companies failed", zap.Error(err))
		h.writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	h.writeJSON(w, http.StatusOK, companies)
}

// GetCompany answers GET /api/companies/{id}. The id is the leading integer
// of the path segment, so "7abc" looks up 7; a segment without leading
// digits cannot match any record and is answered like a missing one.
func (h *RESTHandler) GetCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, ok := leadingInt(params["id"])
	if !ok {
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: companyNotFound})
		return
	}

	company, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		if !errors.Is(err, e.ErrNotFound) {
			h.logger.Error("get company failed", zap.Int64("company_id", id), zap.Error(err))
		}
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: companyNotFound})
		return
	}
	h.writeJSON(w, http.StatusOK, company)
}

// leadingInt parses the integer prefix of s after leading whitespace: an
// optional sign followed by decimal digits, or hex digits after 0x.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base, isDigit := 10, func(c byte) bool { return c >= '0' && c <= '9' }
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, s = 16, s[2:]
		isDigit = func(c byte) bool {
			return (c >= '0' && c <= '9') || (c|0x20 >= 'a' && c|0x20 <= 'f')
		}
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Browse answers GET /api/browse with one derived page.
func (h *RESTHandler) Browse(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	state := browse.NewFilterState()
	if err := h.decoder.Decode(&state, r.URL.Query()); err != nil {
		h.logger.Warn("invalid browse query", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}
	if err := h.validate.StructCtx(r.Context(), state); err != nil {
		h.logger.Warn("browse query failed validation", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	view, err := h.service.Browse(r.Context(), state)
	if err != nil {
		h.logger.Error("browse failed", zap.Error(err))
		view = browse.Derive(nil, state)
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Health answers GET /healthz.
func (h *RESTHandler) Health(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
