package quiz

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/smartstudy/backend/internal/models"
)

type Handler struct {
	controller *Controller
}

func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/quiz", h.StartQuiz).Methods("POST")
	r.HandleFunc("/quiz", h.GetSession).Methods("GET")
	r.HandleFunc("/quiz/answer", h.SubmitAnswer).Methods("POST")
	r.HandleFunc("/quiz/reset", h.ResetSession).Methods("POST")
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.StartQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if !models.ValidQuizModes[req.Mode] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "unknown mode"})
		return
	}

	length, err := ParseLength(string(req.Length))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	streak := -1
	if req.Streak != nil {
		streak = *req.Streak
	}

	resp, err := h.controller.Start(r.Context(), Request{
		Mode:   req.Mode,
		Topic:  req.Topic,
		Length: length,
		Streak: streak,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, resp)
	case errors.Is(err, ErrEmptyQuiz):
		current := h.controller.Current()
		current.Empty = true
		writeJSON(w, http.StatusOK, current)
	case errors.Is(err, ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Questions are still loading or failed to load"})
	case errors.Is(err, ErrTopicRequired), errors.Is(err, ErrUnknownMode), errors.Is(err, ErrBadLength):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("[quiz] failed to start quiz: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to build quiz"})
	}
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Current())
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.controller.Answer(r.Context(), req.QuestionID, req.Choice)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, ErrNoActiveSession):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrStaleQuestion):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrChoiceOutOfRange):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidQuestion):
		log.Printf("[quiz] %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("[quiz] failed to record answer: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record answer"})
	}
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.controller.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
