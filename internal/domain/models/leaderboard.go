package models

type BadgeURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type IconURLs struct {
	Tiny   string `json:"tiny"`
	Small  string `json:"small"`
	Medium string `json:"medium"`
}

type Clan struct {
	Tag       string    `json:"tag"`
	Name      string    `json:"name"`
	BadgeURLs BadgeURLs `json:"badgeUrls"`
}

type League struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	IconURLs IconURLs `json:"iconUrls"`
}

// LeaderboardPlayer игрок в таблице лиги легенд
type LeaderboardPlayer struct {
	Tag          string  `json:"tag"`
	Name         string  `json:"name"`
	ExpLevel     int     `json:"expLevel"`
	Trophies     int     `json:"trophies"`
	AttackWins   int     `json:"attackWins"`
	DefenseWins  int     `json:"defenseWins"`
	Rank         int     `json:"rank"`
	PreviousRank *int    `json:"previousRank,omitempty"`
	Clan         *Clan   `json:"clan,omitempty"`
	League       *League `json:"league,omitempty"`
}

type Leaderboard struct {
	Success bool                `json:"success"`
	Items   []LeaderboardPlayer `json:"items"`
}
