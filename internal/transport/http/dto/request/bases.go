package request

// FilterRequest выбор месяца; пустая строка означает "за все время"
type FilterRequest struct {
	Month string `json:"month" validate:"max=32"`
}

type LeaderboardPageRequest struct {
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Before string `query:"before"`
	After  string `query:"after"`
}
