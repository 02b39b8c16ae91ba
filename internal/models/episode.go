package models

// EpisodeMarker marks one watched episode
type EpisodeMarker struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// EpisodeNumber is an episode entry inside a season group
type EpisodeNumber struct {
	Number int `json:"number"`
}

// SeasonGroup holds the watched episodes of one season, in source order
type SeasonGroup struct {
	Number   int             `json:"number"`
	Episodes []EpisodeNumber `json:"episodes"`
}

// WatchedShowLedger is one show in the watched episodes document
type WatchedShowLedger struct {
	Title   string        `json:"title"`
	Year    Year          `json:"year"`
	IDs     *Identity     `json:"ids"`
	Seasons []SeasonGroup `json:"seasons"`
}
