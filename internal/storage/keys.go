package storage

import "time"

const (
	KeyQuestions    = "questions"
	KeyMissed       = "missedQuestions"
	KeyBookmarks    = "bookmarkedQuestions"
	KeyEarnedBadges = "earnedBadges"
	KeyRatings      = "questionRatings"
	KeyUnclearFlags = "unclearFlags"
	KeyQuizResults  = "quizResults"
	KeySettings     = "settings"
	KeyAdaptiveMode = "adaptiveMode"
	KeyDifficulty   = "difficulty"
	KeyTimerEnabled = "timerEnabled"
	KeySuggestions  = "suggestions"
	KeyReports      = "reports"

	ReviewPrefix    = "review_"
	ChallengePrefix = "challenge_"

	challengeLayout = "2006-01-02"
)

func ReviewKey(questionID string) string {
	return ReviewPrefix + questionID
}

// ChallengeKey names the daily challenge cache for the calendar day of t
// in t's location.
func ChallengeKey(t time.Time) string {
	return ChallengePrefix + t.Format(challengeLayout)
}

// ParseChallengeKey returns the day encoded in a challenge key.
func ParseChallengeKey(key string, loc *time.Location) (time.Time, bool) {
	if len(key) <= len(ChallengePrefix) || key[:len(ChallengePrefix)] != ChallengePrefix {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(challengeLayout, key[len(ChallengePrefix):], loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
