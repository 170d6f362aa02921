package questions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/smartstudy/backend/internal/mastery"
	"github.com/smartstudy/backend/internal/models"
)

type Handler struct {
	store   *Store
	fetcher Fetcher
}

// NewHandler serves the question bank. fetcher backs the admin reload.
func NewHandler(store *Store, fetcher Fetcher) *Handler {
	return &Handler{store: store, fetcher: fetcher}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/questions/topics", h.ListTopics).Methods("GET")
	r.HandleFunc("/questions/status", h.Status).Methods("GET")
	r.HandleFunc("/questions/{id}/bookmark", h.ToggleBookmark).Methods("POST")
	r.HandleFunc("/questions/{id}/rating", h.Rate).Methods("POST")
	r.HandleFunc("/questions/{id}/unclear", h.FlagUnclear).Methods("POST")
	r.HandleFunc("/mastery", h.Mastery).Methods("GET")
}

func (h *Handler) RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/admin/questions/reload", h.Reload).Methods("POST")
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.store.Topics()
	if topics == nil {
		topics = []string{}
	}
	writeJSON(w, http.StatusOK, models.TopicsResponse{Topics: topics})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	report := h.store.Report()
	status := http.StatusOK
	if !report.Loaded {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *Handler) Mastery(w http.ResponseWriter, r *http.Request) {
	entries := mastery.Entries(h.store.All())
	if entries == nil {
		entries = []models.MasteryEntry{}
	}
	writeJSON(w, http.StatusOK, models.MasteryResponse{Topics: entries})
}

// Reload refetches every manifest source. A failed reload keeps the
// previous bank in memory.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.Reload(r.Context(), h.fetcher)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Reload failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	on, err := h.store.ToggleBookmark(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BookmarkResponse{ID: id, Bookmarked: on})
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	var req models.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := h.store.Rate(r.Context(), mux.Vars(r)["id"], req.Rating); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FlagUnclear(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	n, err := h.store.FlagUnclear(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UnclearResponse{ID: id, Flags: n})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
	case errors.Is(err, ErrInvalidRating):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
