package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
)

// Sink receives user submissions. Writes are fire-once: a failed write is
// reported to the caller and never retried.
type Sink interface {
	SaveSuggestion(ctx context.Context, s models.Suggestion) error
	SaveReport(ctx context.Context, r models.Report) error
	Suggestions(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error)
	Reports(ctx context.Context) ([]models.Report, error)
}

// ── Repository-backed sink ─────────────────────────────────

// RepositorySink appends submissions to JSON arrays in the key/value store.
type RepositorySink struct {
	repo storage.Repository
}

func NewRepositorySink(repo storage.Repository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) SaveSuggestion(ctx context.Context, sug models.Suggestion) error {
	_, err := storage.UpdateJSON(ctx, s.repo, storage.KeySuggestions, func(list *[]models.Suggestion) error {
		*list = append(*list, sug)
		return nil
	})
	return err
}

func (s *RepositorySink) SaveReport(ctx context.Context, r models.Report) error {
	_, err := storage.UpdateJSON(ctx, s.repo, storage.KeyReports, func(list *[]models.Report) error {
		*list = append(*list, r)
		return nil
	})
	return err
}

func (s *RepositorySink) Suggestions(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error) {
	list, _, err := storage.GetJSON[[]models.Suggestion](ctx, s.repo, storage.KeySuggestions)
	if err != nil {
		return nil, err
	}
	out := make([]models.Suggestion, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if status == "" || list[i].Status == status {
			out = append(out, list[i])
		}
	}
	return out, nil
}

func (s *RepositorySink) Reports(ctx context.Context) ([]models.Report, error) {
	list, _, err := storage.GetJSON[[]models.Report](ctx, s.repo, storage.KeyReports)
	if err != nil {
		return nil, err
	}
	out := make([]models.Report, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// ── Postgres sink ──────────────────────────────────────────

// PostgresSink writes to the suggestions and reports tables.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) SaveSuggestion(ctx context.Context, sug models.Suggestion) error {
	answers, err := json.Marshal(sug.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO suggestions (id, question, answers, correct, topic, status, note, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sug.ID, sug.Question, answers, sug.Correct, sug.Topic, string(sug.Status), sug.Note, sug.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert suggestion: %w", describe(err))
	}
	return nil
}

func (s *PostgresSink) SaveReport(ctx context.Context, r models.Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, question_id, question, reason, reported_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.QuestionID, r.Question, r.Reason, r.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", describe(err))
	}
	return nil
}

func (s *PostgresSink) Suggestions(ctx context.Context, status models.SuggestionStatus) ([]models.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answers, correct, topic, status, COALESCE(note, ''), submitted_at
		 FROM suggestions
		 WHERE $1::text = '' OR status = $1::text
		 ORDER BY submitted_at DESC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var sug models.Suggestion
		var answers []byte
		var st string
		if err := rows.Scan(&sug.ID, &sug.Question, &answers, &sug.Correct, &sug.Topic, &st, &sug.Note, &sug.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		if err := json.Unmarshal(answers, &sug.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for %s: %w", sug.ID, err)
		}
		sug.Status = models.SuggestionStatus(st)
		out = append(out, sug)
	}
	return out, rows.Err()
}

func (s *PostgresSink) Reports(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, question, reason, reported_at
		 FROM reports ORDER BY reported_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.Question, &r.Reason, &r.ReportedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// describe surfaces the server-side detail of a postgres error.
func describe(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Detail != "" {
		return fmt.Errorf("%w (%s)", err, pqErr.Detail)
	}
	return err
}
