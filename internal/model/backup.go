package model

import "time"

// ExportVersion is written into every export document.
const ExportVersion = "1.0.0"

// ExportSettings carries the settings block of an export document.
type ExportSettings struct {
	MaxImages *int `json:"maxImages,omitempty"`
}

// ExportDocument is the full-state backup format. Recurring quests are
// not part of it.
type ExportDocument struct {
	Version    string         `json:"version"`
	ExportDate time.Time      `json:"exportDate"`
	Settings   ExportSettings `json:"settings"`
	Quests     []SingleQuest  `json:"quests"`
}
