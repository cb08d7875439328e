package enrichment

type teamRef struct {
	TeamID int64  `json:"team_id"`
	Name   string `json:"name"`
}

type pickBan struct {
	IsPick bool `json:"is_pick"`
	HeroID int  `json:"hero_id"`
	Team   int  `json:"team"`
	Order  int  `json:"order"`
}

type matchPlayer struct {
	AccountID   int64  `json:"account_id"`
	PersonaName string `json:"personaname"`
	HeroID      int    `json:"hero_id"`
	PlayerSlot  int    `json:"player_slot"`
	IsRadiant   *bool  `json:"isRadiant"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	Assists     int    `json:"assists"`
}

type matchPayload struct {
	MatchID       int64         `json:"match_id"`
	Duration      int           `json:"duration"`
	StartTime     int64         `json:"start_time"`
	RadiantWin    bool          `json:"radiant_win"`
	LeagueID      int64         `json:"leagueid"`
	RadiantTeamID int64         `json:"radiant_team_id"`
	DireTeamID    int64         `json:"dire_team_id"`
	RadiantName   string        `json:"radiant_name"`
	DireName      string        `json:"dire_name"`
	RadiantTeam   *teamRef      `json:"radiant_team"`
	DireTeam      *teamRef      `json:"dire_team"`
	PicksBans     []pickBan     `json:"picks_bans"`
	Players       []matchPlayer `json:"players"`
}

type playerProfile struct {
	AccountID   int64  `json:"account_id"`
	PersonaName string `json:"personaname"`
	Name        string `json:"name"`
	AvatarFull  string `json:"avatarfull"`
}

type playerPayload struct {
	Profile  *playerProfile `json:"profile"`
	RankTier int            `json:"rank_tier"`
}

type winLossPayload struct {
	Win  int `json:"win"`
	Lose int `json:"lose"`
}

type heroPayload struct {
	HeroID int `json:"hero_id"`
	Games  int `json:"games"`
	Win    int `json:"win"`
}
