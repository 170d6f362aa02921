package feedback

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/smartstudy/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/suggestions", h.Suggest).Methods("POST")
	r.HandleFunc("/reports", h.Report).Methods("POST")
}

// RegisterAdmin mounts the moderation listings on an authenticated router.
func (h *Handler) RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/admin/suggestions", h.ListSuggestions).Methods("GET")
	r.HandleFunc("/admin/reports", h.ListReports).Methods("GET")
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	sug, err := h.service.SubmitSuggestion(r.Context(), req)
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SubmissionResponse{ID: sug.ID, Message: "Thanks! Your question was submitted for review."})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	rep, err := h.service.SubmitReport(r.Context(), req)
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SubmissionResponse{ID: rep.ID, Message: "Thanks! The question was reported."})
}

func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	status := models.SuggestionStatus(r.URL.Query().Get("status"))
	list, err := h.service.Suggestions(r.Context(), status)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load suggestions"})
		return
	}
	if list == nil {
		list = []models.Suggestion{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Reports(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load reports"})
		return
	}
	if list == nil {
		list = []models.Report{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeSubmitError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidSubmission) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Submission failed, please try again"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
