package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartstudy/backend/internal/models"
)

var ErrInvalidSubmission = errors.New("invalid submission")

// Triager assigns a moderation status to a new suggestion.
type Triager interface {
	Triage(ctx context.Context, s models.Suggestion) (models.SuggestionStatus, string)
}

type Service struct {
	sink   Sink
	triage Triager
	now    func() time.Time
}

// NewService builds the submission service. triage may be nil.
func NewService(sink Sink, triage Triager) *Service {
	return &Service{sink: sink, triage: triage, now: time.Now}
}

func (s *Service) SubmitSuggestion(ctx context.Context, req models.SuggestionRequest) (models.Suggestion, error) {
	sug := models.Suggestion{
		Question: strings.TrimSpace(req.Question),
		Topic:    strings.TrimSpace(req.Topic),
		Correct:  req.Correct,
		Status:   models.SuggestionPending,
	}
	for _, a := range req.Answers {
		if a = strings.TrimSpace(a); a != "" {
			sug.Answers = append(sug.Answers, a)
		}
	}

	switch {
	case sug.Question == "":
		return models.Suggestion{}, fmt.Errorf("%w: question is required", ErrInvalidSubmission)
	case sug.Topic == "":
		return models.Suggestion{}, fmt.Errorf("%w: topic is required", ErrInvalidSubmission)
	case len(sug.Answers) < 2:
		return models.Suggestion{}, fmt.Errorf("%w: at least two answers are required", ErrInvalidSubmission)
	case len(sug.Answers) != len(req.Answers):
		return models.Suggestion{}, fmt.Errorf("%w: answers must not be blank", ErrInvalidSubmission)
	case sug.Correct < 0 || sug.Correct >= len(sug.Answers):
		return models.Suggestion{}, fmt.Errorf("%w: correct answer index %d out of range", ErrInvalidSubmission, sug.Correct)
	}

	sug.ID = uuid.New().String()
	sug.SubmittedAt = s.now().UTC()

	if s.triage != nil {
		sug.Status, sug.Note = s.triage.Triage(ctx, sug)
	}

	if err := s.sink.SaveSuggestion(ctx, sug); err != nil {
		log.Printf("WARN: [feedback] suggestion %s not saved: %v", sug.ID, err)
		return models.Suggestion{}, fmt.Errorf("save suggestion: %w", err)
	}
	log.Printf("[feedback] suggestion %s saved (%s)", sug.ID, sug.Status)
	return sug, nil
}

func (s *Service) SubmitReport(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	r := models.Report{
		QuestionID: strings.TrimSpace(req.QuestionID),
		Question:   strings.TrimSpace(req.Question),
		Reason:     strings.TrimSpace(req.Reason),
	}
	if r.QuestionID == "" {
		return models.Report{}, fmt.Errorf("%w: questionId is required", ErrInvalidSubmission)
	}
	if r.Reason == "" {
		return models.Report{}, fmt.Errorf("%w: reason is required", ErrInvalidSubmission)
	}

	r.ID = uuid.New().String()
	r.ReportedAt = s.now().UTC()

	if err := s.sink.SaveReport(ctx, r); err != nil {
		log.Printf("WARN: [feedback] report on %s not saved: %v", r.QuestionID, err)
		return models.Report{}, fmt.Errorf("save report: %w", err)
	}
	log.Printf("[feedback] report %s saved for question %s", r.ID, r.QuestionID)
	return r, nil
}

func (s *Service) Suggestions(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error) {
	return s.sink.Suggestions(ctx, status)
}

func (s *Service) Reports(ctx context.Context) ([]models.Report, error) {
	return s.sink.Reports(ctx)
}
