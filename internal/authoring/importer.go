package authoring

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/questions"
	"github.com/xuri/excelize/v2"
)

// ImportConfig describes the spreadsheet layout. Columns are letters.
type ImportConfig struct {
	FilePath          string   // Excel (.xlsx) or CSV file
	SheetName         string   // Sheet to read; empty means the first sheet
	StartRow          int      // First data row (1-based)
	IDColumn          string   // Optional; generated from topic and row when blank
	TopicColumn       string   // Required
	QuestionColumn    string   // Required
	AnswerColumns     []string // At least two
	CorrectColumn     string   // Answer letter (A-F) or 1-based number
	ExplanationColumn string
	DifficultyColumn  string
	DefaultTopic      string // Used when the topic cell is blank
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		StartRow:          2,
		IDColumn:          "A",
		TopicColumn:       "B",
		QuestionColumn:    "C",
		AnswerColumns:     []string{"D", "E", "F", "G"},
		CorrectColumn:     "H",
		ExplanationColumn: "I",
		DifficultyColumn:  "J",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int               `json:"totalProcessed"`
	Created        int               `json:"created"`
	Skipped        int               `json:"skipped"`
	Errors         []string          `json:"errors"`
	Questions      []models.Question `json:"-"`
}

// bankQuestion is the on-disk record written by the importer.
type bankQuestion struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	Question    string            `json:"question"`
	Answers     []string          `json:"answers"`
	Correct     int               `json:"correct"`
	Explanation string            `json:"explanation,omitempty"`
	Difficulty  models.Difficulty `json:"difficulty,omitempty"`
}

// ImportQuestions reads questions from an Excel or CSV file.
func ImportQuestions(config ImportConfig) (*ImportResult, error) {
	if config.QuestionColumn == "" || len(config.AnswerColumns) < 2 || config.CorrectColumn == "" {
		return nil, fmt.Errorf("import config needs a question column, two answer columns and a correct column")
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	seen := make(map[string]bool)
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		if blankRow(row) {
			continue
		}
		result.TotalProcessed++

		q, err := buildQuestion(row, config, rowNum)
		if err == nil && seen[q.ID] {
			err = fmt.Errorf("duplicate id %q", q.ID)
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		seen[q.ID] = true
		result.Questions = append(result.Questions, q)
		result.Created++
	}
	return result, nil
}

// WriteQuestions writes qs as a bare question array with 2-space
// indentation, then parses the file back to prove it loads.
func WriteQuestions(path string, qs []models.Question) error {
	records := make([]bankQuestion, len(qs))
	for i, q := range qs {
		records[i] = bankQuestion{
			ID:          q.ID,
			Topic:       q.Topic,
			Question:    q.Question,
			Answers:     q.Answers,
			Correct:     q.Correct,
			Explanation: q.Explanation,
			Difficulty:  q.Difficulty,
		}
	}
	out, err := encodeIndented(records)
	if err != nil {
		return err
	}

	parsed, dropped, err := questions.ParseSource(questions.RawSource{Path: path, Data: out})
	if err != nil {
		return fmt.Errorf("generated file does not load: %w", err)
	}
	if dropped > 0 || len(parsed) != len(qs) {
		return fmt.Errorf("generated file drops %d of %d questions", len(qs)-len(parsed), len(qs))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func buildQuestion(row []string, config ImportConfig, rowNum int) (models.Question, error) {
	q := models.Question{
		ID:          cell(row, config.IDColumn),
		Topic:       cell(row, config.TopicColumn),
		Question:    cell(row, config.QuestionColumn),
		Explanation: cell(row, config.ExplanationColumn),
	}

	if q.Topic == "" {
		q.Topic = config.DefaultTopic
	}
	if q.Topic == "" {
		return q, fmt.Errorf("missing topic")
	}
	q.Topic = HumanizeTopic(q.Topic)
	if q.Question == "" {
		return q, fmt.Errorf("missing question text")
	}

	for _, col := range config.AnswerColumns {
		if a := cell(row, col); a != "" {
			q.Answers = append(q.Answers, a)
		}
	}
	if len(q.Answers) < 2 {
		return q, fmt.Errorf("need at least two answers, got %d", len(q.Answers))
	}

	correct, err := parseCorrect(cell(row, config.CorrectColumn), len(q.Answers))
	if err != nil {
		return q, err
	}
	q.Correct = correct

	if d := strings.ToLower(cell(row, config.DifficultyColumn)); d != "" {
		if !models.ValidDifficulties[models.Difficulty(d)] {
			return q, fmt.Errorf("unknown difficulty %q", d)
		}
		q.Difficulty = models.Difficulty(d)
	}

	if q.ID == "" {
		q.ID = fmt.Sprintf("%s_%d", strings.ToLower(strings.ReplaceAll(q.Topic, " ", "_")), rowNum)
	}
	q.ID = HumanizeID(q.ID)
	return q, nil
}

// parseCorrect accepts an answer letter or a 1-based answer number.
func parseCorrect(raw string, answers int) (int, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return 0, fmt.Errorf("missing correct answer")
	}
	var idx int
	if n, err := strconv.Atoi(raw); err == nil {
		idx = n - 1
	} else if len(raw) == 1 && raw[0] >= 'A' && raw[0] <= 'Z' {
		idx = int(raw[0] - 'A')
	} else {
		return 0, fmt.Errorf("correct answer %q is neither a letter nor a number", raw)
	}
	if idx < 0 || idx >= answers {
		return 0, fmt.Errorf("correct answer %q out of range for %d answers", raw, answers)
	}
	return idx, nil
}

// cell returns the trimmed value of the lettered column, or "" when the
// column is unset or the row is short.
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(column))
	if err != nil || n > len(row) {
		return ""
	}
	return strings.TrimSpace(row[n-1])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
