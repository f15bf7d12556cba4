package model

import "time"

// Company is keyed by NormalizedName, its unique key (spec §3 "Company").
type Company struct {
	ID             string
	Name           string
	NormalizedName string
	Aliases        []string
	Domains        []string
	IsActive       bool
	Source         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SourceAutoCreated marks a company created by the import or
// contact-association bulk-resolution path (spec §3, §4.3 step 4);
// such companies start inactive until an operator promotes them.
const SourceAutoCreated = "linkedin_import"

// CompanyDTO is the wire representation returned by the companies API.
type CompanyDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Aliases        []string  `json:"aliases"`
	Domains        []string  `json:"domains"`
	IsActive       bool      `json:"is_active"`
	Source         string    `json:"source"`
	ContactsCount  int       `json:"contacts_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Company) ToDTO() *CompanyDTO {
	return &CompanyDTO{
		ID:             c.ID,
		Name:           c.Name,
		NormalizedName: c.NormalizedName,
		Aliases:        c.Aliases,
		Domains:        c.Domains,
		IsActive:       c.IsActive,
		Source:         c.Source,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
