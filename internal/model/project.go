package model

import (
	"encoding/json"
	"time"
)

// Project is one snapshot row per external project id. Payload holds the raw
// registry document as fetched; score fields stay nil until the score engine
// has processed the project.
type Project struct {
	ID           string
	Name         string
	Status       string
	Payload      json.RawMessage
	LastSync     time.Time
	Processed    bool
	Score        *int
	AlertColor   *string
	AlertMessage *string
}

// Document is one row of the per-project document-presence table. Rows are
// fully replaced on every sync, never merged.
type Document struct {
	ProjectID string
	DocType   string
	Published bool
	Weight    float64
}

type Location struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}
