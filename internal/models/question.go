package models

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

type Question struct {
	ID         int64  `json:"id"`
	Text       string `json:"text" example:"Design a URL shortener."`
	Role       string `json:"role" example:"SDE"`
	Category   string `json:"category" example:"System Design"`
	Difficulty string `json:"difficulty" example:"Medium"`
}

type QuestionFilters struct {
	Roles      []string `json:"roles"`
	Categories []string `json:"categories"`
}
