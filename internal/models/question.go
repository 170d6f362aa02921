package models

type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:     true,
	DifficultyModerate: true,
	DifficultyHard:     true,
}

// QuestionStats accumulates answer outcomes across sessions.
type QuestionStats struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Attempts is the number of recorded outcomes.
func (s QuestionStats) Attempts() int {
	return s.Correct + s.Incorrect
}

// Accuracy is correct/attempts, or 0 when nothing has been recorded.
func (s QuestionStats) Accuracy() float64 {
	n := s.Attempts()
	if n == 0 {
		return 0
	}
	return float64(s.Correct) / float64(n)
}

type Question struct {
	ID          string        `json:"id"`
	Topic       string        `json:"topic"`
	Question    string        `json:"question"`
	Answers     []string      `json:"answers"`
	Correct     int           `json:"correct"`
	Explanation string        `json:"explanation,omitempty"`
	Difficulty  Difficulty    `json:"difficulty,omitempty"`
	Image       string        `json:"image,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Stats       QuestionStats `json:"stats"`
	Bookmarked  bool          `json:"bookmarked"`
	Answered    bool          `json:"answered"`
}

// IsCorrect reports whether choice is the index of the correct answer.
func (q Question) IsCorrect(choice int) bool {
	return choice == q.Correct
}

// Clone returns a copy that shares no slices with q.
func (q Question) Clone() Question {
	c := q
	c.Answers = append([]string(nil), q.Answers...)
	if q.Tags != nil {
		c.Tags = append([]string(nil), q.Tags...)
	}
	return c
}

// QuestionView is the client-facing shape of a quiz question. The correct
// index is withheld until the question has been answered.
type QuestionView struct {
	ID         string     `json:"id"`
	Topic      string     `json:"topic"`
	Question   string     `json:"question"`
	Answers    []string   `json:"answers"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Image      string     `json:"image,omitempty"`
	Bookmarked bool       `json:"bookmarked"`
}

func (q Question) View() QuestionView {
	return QuestionView{
		ID:         q.ID,
		Topic:      q.Topic,
		Question:   q.Question,
		Answers:    q.Answers,
		Difficulty: q.Difficulty,
		Image:      q.Image,
		Bookmarked: q.Bookmarked,
	}
}

// TopicMastery is derived per topic from question stats.
type TopicMastery struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Total     int `json:"total"`
}

// Ratio is correct/total, or 0 for an empty topic.
func (m TopicMastery) Ratio() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Total)
}

type TopicsResponse struct {
	Topics []string `json:"topics"`
}

type MasteryEntry struct {
	Topic string `json:"topic"`
	TopicMastery
	Percent int `json:"percent"`
}

type MasteryResponse struct {
	Topics []MasteryEntry `json:"topics"`
}

type RateRequest struct {
	Rating int `json:"rating"`
}

type BookmarkResponse struct {
	ID         string `json:"id"`
	Bookmarked bool   `json:"bookmarked"`
}

type UnclearResponse struct {
	ID    string `json:"id"`
	Flags int    `json:"flags"`
}

// SkippedSource is a question file that contributed nothing to a load.
type SkippedSource struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type LoadReport struct {
	Loaded    bool            `json:"loaded"`
	FromCache bool            `json:"from_cache"`
	Sources   int             `json:"sources"`
	Questions int             `json:"questions"`
	Dropped   int             `json:"dropped"`
	Skipped   []SkippedSource `json:"skipped,omitempty"`
	Error     string          `json:"error,omitempty"`
}
