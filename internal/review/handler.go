package review

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/smartstudy/backend/internal/models"
)

// QuestionLister supplies the current bank.
type QuestionLister interface {
	All() []models.Question
}

type Handler struct {
	scheduler *Scheduler
	questions QuestionLister
	now       func() time.Time
}

func NewHandler(scheduler *Scheduler, questions QuestionLister) *Handler {
	return &Handler{scheduler: scheduler, questions: questions, now: time.Now}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/review/due", h.ListDue).Methods("GET")
}

func (h *Handler) ListDue(w http.ResponseWriter, r *http.Request) {
	due, err := h.scheduler.DueNow(r.Context(), h.questions.All(), h.now())
	if err != nil {
		log.Printf("[review] failed to list due reviews: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load reviews"})
		return
	}

	resp := models.DueReviewsResponse{Due: []models.DueReview{}, Count: len(due)}
	for _, d := range due {
		resp.Due = append(resp.Due, models.DueReview{Question: d.Question.View(), DueAt: d.DueAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
