package domain

import (
	"time"
)

// Account is the cached identity of a player fingerprint as returned by the
// account service. One fingerprint maps to exactly one profile.
type Account struct {
	Fingerprint string
	ProfileID   int64
	ProfileName string
	AvatarURL   string
	Banned      bool
}

// Game is one accepted match record, keyed by the content hash of its
// source. ProfileID0 is always the winner.
type Game struct {
	Hash             string
	Mod              string
	StartTime        time.Time
	EndTime          time.Time
	Filename         string
	ProfileID0       int64
	ProfileID1       int64
	Faction0         string
	Faction1         string
	SelectedFaction0 string
	SelectedFaction1 string
	MapUID           string
	MapTitle         string
}

// Player is the persisted per-season player row. Field order matches the
// players table column order.
type Player struct {
	ProfileID int64
	Name      string
	AvatarURL string
	Banned    bool
	Wins      int
	Losses    int
	PrvRating int
	Rating    int
}

// WinRate returns the share of games won, or 0 when no games were played.
func (p Player) WinRate() float64 {
	total := p.Wins + p.Losses
	if total == 0 {
		return 0
	}
	return float64(p.Wins) / float64(total)
}

// Outcome is the immutable record of one match's rating transition.
type Outcome struct {
	Hash             string
	StartTime        time.Time
	EndTime          time.Time
	Filename         string
	ProfileID0       int64
	ProfileID1       int64
	Rating0Pre       int
	Rating1Pre       int
	Rating0Post      int
	Rating1Post      int
	Faction0         string
	Faction1         string
	SelectedFaction0 string
	SelectedFaction1 string
	MapUID           string
	MapTitle         string
}

// RatingRow is one player's post-match rating within a season, backing rank
// deltas and rating history.
type RatingRow struct {
	ReplayHash string
	SeasonID   string
	Mod        string
	ProfileID  int64
	Value      int
	Difference int
}

// RankingRow is one player's position in a season's table. Rank is nil until
// assigned; in archived seasons ineligible players keep a nil rank.
type RankingRow struct {
	ProfileID  int64
	SeasonID   string
	Mod        string
	Eligible   bool
	Comment    string
	Wins       int
	Losses     int
	Rating     int
	Difference int
	Rank       *int
}

// Season is one ranking period of a mod. The rolling season keeps the
// reserved rolling id until rotation relabels it with a sequential one.
type Season struct {
	ID                SeasonID
	Mod               string
	Title             string
	Group             string
	Algorithm         string
	ReplayPath        string
	Start             time.Time
	End               time.Time
	Active            bool
	StrictEligibility bool
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID       string        `json:"run_id"`
	Accepted    int           `json:"accepted"`
	Dropped     int           `json:"dropped"`
	Quarantined int           `json:"quarantined"`
	Elapsed     time.Duration `json:"elapsed"`
}
