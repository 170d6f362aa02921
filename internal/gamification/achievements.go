package gamification

import "github.com/smartstudy/backend/internal/models"

// BadgeDef is a catalog entry: display data plus the predicate that earns it.
type BadgeDef struct {
	models.Badge
	Earned func(models.BadgeState) bool
}

func completed(s models.BadgeState) bool {
	return s.QuizLength > 0 && s.Current >= s.QuizLength
}

// Catalog is evaluated in this order, so newly earned badges are reported
// in this order too. Removing an entry prunes it from earned lists on load.
var Catalog = []BadgeDef{
	{
		Badge:  models.Badge{ID: "first_correct", Name: "First Steps", Description: "Answer a question correctly"},
		Earned: func(s models.BadgeState) bool { return s.Correct >= 1 },
	},
	{
		Badge:  models.Badge{ID: "streak_3", Name: "On a Roll", Description: "3 correct answers in a row"},
		Earned: func(s models.BadgeState) bool { return s.Streak >= 3 },
	},
	{
		Badge:  models.Badge{ID: "streak_5", Name: "Hot Hands", Description: "5 correct answers in a row"},
		Earned: func(s models.BadgeState) bool { return s.Streak >= 5 },
	},
	{
		Badge:  models.Badge{ID: "streak_10", Name: "Unstoppable", Description: "10 correct answers in a row"},
		Earned: func(s models.BadgeState) bool { return s.Streak >= 10 },
	},
	{
		Badge: models.Badge{ID: "halfway", Name: "Halfway There", Description: "Reach the middle of a quiz of 10 or more"},
		Earned: func(s models.BadgeState) bool {
			return s.QuizLength >= 10 && s.Current*2 >= s.QuizLength
		},
	},
	{
		Badge:  models.Badge{ID: "quiz_complete", Name: "Finisher", Description: "Complete a quiz"},
		Earned: completed,
	},
	{
		Badge: models.Badge{ID: "perfect_quiz", Name: "Flawless", Description: "Finish a quiz of 5 or more with every answer correct"},
		Earned: func(s models.BadgeState) bool {
			return completed(s) && s.QuizLength >= 5 && s.Correct == s.QuizLength
		},
	},
	{
		Badge:  models.Badge{ID: "marathon", Name: "Marathon", Description: "Complete a quiz of 50 or more questions"},
		Earned: func(s models.BadgeState) bool { return completed(s) && s.QuizLength >= 50 },
	},
}

var catalogIndex = func() map[string]int {
	m := make(map[string]int, len(Catalog))
	for i, d := range Catalog {
		m[d.ID] = i
	}
	return m
}()

// KnownBadge reports whether id is in the catalog.
func KnownBadge(id string) bool {
	_, ok := catalogIndex[id]
	return ok
}

// CheckBadges returns the ids of catalog badges whose predicate holds for
// state and which are not in earned. The caller persists them.
func CheckBadges(state models.BadgeState, earned map[string]bool) []string {
	var ids []string
	for _, d := range Catalog {
		if earned[d.ID] {
			continue
		}
		if d.Earned(state) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
