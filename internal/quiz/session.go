package quiz

import (
	"errors"
	"time"

	"github.com/smartstudy/backend/internal/models"
)

var (
	ErrNoActiveSession  = errors.New("no quiz in progress")
	ErrChoiceOutOfRange = errors.New("choice out of range")
	ErrStaleQuestion    = errors.New("answer is for a question that is no longer current")
	ErrEmptyQuiz        = errors.New("no questions match this quiz")
	ErrNotReady         = errors.New("questions are not loaded")
	ErrInvalidQuestion  = errors.New("question has no valid correct answer")
)

// Session is one run through a quiz. It moves from in progress to
// completed as the last question is answered; a controller with no session
// is in the not-started state.
type Session struct {
	Mode       models.QuizMode
	Questions  []models.Question
	Current    int
	Correct    int
	Streak     int
	BestStreak int
	State      models.SessionState
	StartedAt  time.Time
}

func NewSession(mode models.QuizMode, questions []models.Question, now time.Time) *Session {
	return &Session{
		Mode:      mode,
		Questions: questions,
		State:     models.SessionInProgress,
		StartedAt: now,
	}
}

// Answered is the outcome of one Answer call.
type Answered struct {
	Question  models.Question
	Correct   bool
	Completed bool
}

// CurrentQuestion returns the question awaiting an answer.
func (s *Session) CurrentQuestion() (models.Question, bool) {
	if s.State != models.SessionInProgress || s.Current >= len(s.Questions) {
		return models.Question{}, false
	}
	return s.Questions[s.Current], true
}

// Answer scores choice against the current question and advances.
func (s *Session) Answer(choice int) (Answered, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return Answered{}, ErrNoActiveSession
	}
	if choice < 0 || choice >= len(q.Answers) {
		return Answered{}, ErrChoiceOutOfRange
	}

	correct := q.IsCorrect(choice)
	if correct {
		s.Correct++
		s.Streak++
		if s.Streak > s.BestStreak {
			s.BestStreak = s.Streak
		}
	} else {
		s.Streak = 0
	}

	s.Current++
	if s.Current >= len(s.Questions) {
		s.State = models.SessionCompleted
	}
	return Answered{Question: q, Correct: correct, Completed: s.State == models.SessionCompleted}, nil
}

// BadgeState is what badge predicates see right now.
func (s *Session) BadgeState() models.BadgeState {
	return models.BadgeState{
		Streak:     s.Streak,
		Correct:    s.Correct,
		QuizLength: len(s.Questions),
		Current:    s.Current,
	}
}

func (s *Session) Response() models.SessionResponse {
	resp := models.SessionResponse{
		Mode:       s.Mode,
		State:      s.State,
		Total:      len(s.Questions),
		Current:    s.Current,
		Correct:    s.Correct,
		Streak:     s.Streak,
		BestStreak: s.BestStreak,
		StartedAt:  s.StartedAt,
	}
	if q, ok := s.CurrentQuestion(); ok {
		v := q.View()
		resp.Question = &v
	}
	return resp
}
