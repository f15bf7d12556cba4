package model

import "time"

// Keyword maps a normalized job-title substring to an owning persona
// (spec §3 "Keyword", §4.2).
type Keyword struct {
	ID                string
	KeywordNormalized string
	PersonaID         string
	PersonaName       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Priority is the tie-break table for keyword ownership (spec §3
// "Persona priority"); lower Priority wins.
type Priority struct {
	PersonaID   string
	PersonaName string
	Priority    int
}

// DefaultPersonaID is returned by classify() when no keyword matches
// (spec §4.2).
const DefaultPersonaID = "mateo"

// Match is one matched keyword against a classified job title,
// reported for diagnostic endpoints.
type Match struct {
	Keyword     string `json:"keyword"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
	Priority    int    `json:"priority"`
}

// Classification is the classify() contract's return value (spec §4.2).
type Classification struct {
	PersonaID          string  `json:"persona_id"`
	PersonaDisplayName string  `json:"persona_display_name"`
	MatchedKeywords    []string `json:"matched_keywords"`
	AllMatches         []Match `json:"all_matches"`
	NormalizedJobTitle string  `json:"normalized_job_title"`
	IsDefault          bool    `json:"is_default"`
}
