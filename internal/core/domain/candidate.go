package domain

import "time"

type CandidateStatus string

const (
	StatusPending  CandidateStatus = "pending"
	StatusAccepted CandidateStatus = "accepted"
	StatusRejected CandidateStatus = "rejected"
)

// Candidate is a prospective business record. Identity fields (PlaceID,
// Name, Address, Lat, Lng) are immutable after creation; Sources is an
// append-only evidence log even as Menus and Features are merged.
type Candidate struct {
	ID      string `json:"id"`
	PlaceID string `json:"place_id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`

	Website   string `json:"website,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Instagram string `json:"instagram,omitempty"`

	Menus            []MenuItem              `json:"menus"`
	Features         map[string]FeatureValue `json:"features"`
	Sources          []Evidence              `json:"sources"`
	Signals          []Signal                `json:"signals,omitempty"`
	ReliabilityScore int                     `json:"reliability_score"`

	Status    CandidateStatus `json:"status"`
	JobID     string          `json:"job_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Evidence records where a piece of data came from. Entries are appended,
// never rewritten or deduplicated by content.
type Evidence struct {
	Type        string         `json:"type"`
	URL         string         `json:"url,omitempty"`
	Status      string         `json:"status,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	CollectedAt time.Time      `json:"collected_at,omitempty"`
}

// Signal is one corroborating hint discovered during a scout pass.
type Signal struct {
	Type       string `json:"type"`
	Keyword    string `json:"keyword"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
	Detail     string `json:"detail,omitempty"`
}

// AddSource appends an evidence entry, preserving everything already there.
func (c *Candidate) AddSource(src Evidence) {
	c.Sources = append(c.Sources, src)
}
