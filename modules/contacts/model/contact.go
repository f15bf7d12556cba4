package model

import "time"

// Email is one entry in a contact's email list. Exactly one entry may
// carry IsPrimary across the list.
type Email struct {
	Email     string `json:"email"`
	IsPrimary bool   `json:"is_primary"`
}

// CompanyLink is one entry in a contact's companies list.
type CompanyLink struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	IsPrimary   bool   `json:"is_primary"`
}

// WebinarAttendance records a contact's status against a webinar event.
type WebinarAttendance struct {
	EventID      string    `json:"event_id"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Contact is the unified identity (spec §3 "Contact").
type Contact struct {
	ID string

	Emails          []Email
	PrimaryEmail    *string
	LinkedInURL     *string
	LinkedInURLNorm *string

	Name      string
	FirstName string
	LastName  string

	JobTitle           *string
	JobTitleNormalized *string

	PrimaryCompanyID   *string
	PrimaryCompanyName *string
	Companies          []CompanyLink

	Stage      int
	SubStatus  map[string]string // keyed by "stage_<n>_status"
	Persona    *string
	PersonaName       *string
	PersonaLocked     bool

	Webinars []WebinarAttendance

	Source        string
	SourceDetails map[string]string

	FirstConnectedOnLinkedIn *time.Time
	LinkedInAcceptedBy       *string

	EmailCadence map[string]EmailCadenceEntry // keyed by rule name

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailCadenceEntry tracks the last email of a given cadence rule sent
// to a contact ("last_email_<rule>_sent"/"last_email_<rule>_content").
type EmailCadenceEntry struct {
	SentAt  time.Time `json:"sent_at"`
	Content string    `json:"content,omitempty"`
}

const (
	StageMin = 1
	StageMax = 5

	SourcePositionSearch = "position_search"
	SourceLinkedInImport = "linkedin_import"
)

// HasPrimaryEmail reports whether exactly one email in the list is primary.
func (c *Contact) HasPrimaryEmail() bool {
	count := 0
	for _, e := range c.Emails {
		if e.IsPrimary {
			count++
		}
	}
	return count == 1
}

// HasPrimaryCompany reports whether the contact already has a primary company link.
func (c *Contact) HasPrimaryCompany() bool {
	return c.PrimaryCompanyID != nil && *c.PrimaryCompanyID != ""
}

// ContactDTO is the wire representation returned by the contacts API.
type ContactDTO struct {
	ID                 string              `json:"id"`
	Emails             []Email             `json:"emails"`
	PrimaryEmail       *string             `json:"primary_email,omitempty"`
	LinkedInURL        *string             `json:"linkedin_url,omitempty"`
	Name               string              `json:"name"`
	FirstName          string              `json:"first_name"`
	LastName           string              `json:"last_name"`
	JobTitle           *string             `json:"job_title,omitempty"`
	PrimaryCompanyName *string             `json:"primary_company_name,omitempty"`
	Companies          []CompanyLink       `json:"companies"`
	Stage              int                 `json:"stage"`
	Persona            *string             `json:"persona,omitempty"`
	PersonaName        *string             `json:"persona_name,omitempty"`
	PersonaLocked      bool                `json:"persona_locked"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (c *Contact) ToDTO() *ContactDTO {
	return &ContactDTO{
		ID:                 c.ID,
		Emails:              c.Emails,
		PrimaryEmail:        c.PrimaryEmail,
		LinkedInURL:         c.LinkedInURL,
		Name:                c.Name,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		JobTitle:            c.JobTitle,
		PrimaryCompanyName:  c.PrimaryCompanyName,
		Companies:           c.Companies,
		Stage:               c.Stage,
		Persona:             c.Persona,
		PersonaName:         c.PersonaName,
		PersonaLocked:       c.PersonaLocked,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}
