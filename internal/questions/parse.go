package questions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/smartstudy/backend/internal/models"
)

// RawSource is one fetched question file before parsing.
type RawSource struct {
	Path string
	Data []byte
}

var errNotQuestionArray = errors.New("not an array of questions")

type rawQuestion struct {
	ID           string               `json:"id"`
	Topic        string               `json:"topic"`
	Question     string               `json:"question"`
	Answers      []string             `json:"answers"`
	Correct      *int                 `json:"correct"`
	CorrectIndex *int                 `json:"correctIndex"`
	Explanation  string               `json:"explanation"`
	Difficulty   string               `json:"difficulty"`
	Image        string               `json:"image"`
	Tags         []string             `json:"tags"`
	Stats        models.QuestionStats `json:"stats"`
}

type wrappedQuestions struct {
	Questions json.RawMessage `json:"questions"`
}

// ParseSource decodes a question file. The payload is either a bare JSON
// array or an object with a "questions" array. Records that are not
// question-like are dropped and counted; a payload of the wrong shape is
// an error and contributes nothing.
func ParseSource(src RawSource) ([]models.Question, int, error) {
	body := bytes.TrimSpace(src.Data)
	if len(body) == 0 {
		return nil, 0, fmt.Errorf("%s: empty file", src.Path)
	}

	if body[0] == '{' {
		var w wrappedQuestions
		if err := json.Unmarshal(body, &w); err != nil {
			return nil, 0, fmt.Errorf("%s contains invalid JSON: %w", src.Path, err)
		}
		if len(w.Questions) == 0 {
			return nil, 0, fmt.Errorf("%s: %w", src.Path, errNotQuestionArray)
		}
		body = bytes.TrimSpace(w.Questions)
	}

	if len(body) == 0 || body[0] != '[' {
		if !json.Valid(body) {
			return nil, 0, fmt.Errorf("%s contains invalid JSON", src.Path)
		}
		return nil, 0, fmt.Errorf("%s: %w", src.Path, errNotQuestionArray)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, 0, fmt.Errorf("%s contains invalid JSON: %w", src.Path, err)
	}

	out := make([]models.Question, 0, len(raws))
	dropped := 0
	for i, raw := range raws {
		q, err := decodeQuestion(raw)
		if err != nil {
			log.Printf("WARN: [questions] %s record %d dropped: %v", src.Path, i, err)
			dropped++
			continue
		}
		out = append(out, q)
	}
	return out, dropped, nil
}

func decodeQuestion(raw json.RawMessage) (models.Question, error) {
	var rq rawQuestion
	if err := json.Unmarshal(raw, &rq); err != nil {
		return models.Question{}, fmt.Errorf("decode: %w", err)
	}

	correct := rq.Correct
	if correct == nil {
		correct = rq.CorrectIndex
	}
	if err := checkQuestion(rq.ID, rq.Question, rq.Answers, correct); err != nil {
		return models.Question{}, err
	}

	return models.Question{
		ID:          rq.ID,
		Topic:       strings.TrimSpace(rq.Topic),
		Question:    rq.Question,
		Answers:     rq.Answers,
		Correct:     *correct,
		Explanation: rq.Explanation,
		Difficulty:  models.Difficulty(strings.ToLower(strings.TrimSpace(rq.Difficulty))),
		Image:       rq.Image,
		Tags:        rq.Tags,
		Stats:       rq.Stats,
	}, nil
}

// ValidateQuestion applies the record rules to an already decoded question.
func ValidateQuestion(q models.Question) error {
	return checkQuestion(q.ID, q.Question, q.Answers, &q.Correct)
}

func checkQuestion(id, text string, answers []string, correct *int) error {
	var errs []string
	if strings.TrimSpace(id) == "" {
		errs = append(errs, "missing id")
	}
	if strings.TrimSpace(text) == "" {
		errs = append(errs, "missing question text")
	}
	if len(answers) < 2 {
		errs = append(errs, fmt.Sprintf("need at least 2 answers, got %d", len(answers)))
	}
	if correct == nil {
		errs = append(errs, "missing correct index")
	} else if *correct < 0 || *correct >= len(answers) {
		errs = append(errs, fmt.Sprintf("correct index %d out of range", *correct))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
