package model

// CreateContactRequest represents a manual contact-creation request
// (distinct from the import worker's insert path in §4.3 step 7).
type CreateContactRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=255"`
	Email        *string `json:"email,omitempty"`
	LinkedInURL  *string `json:"linkedin_url,omitempty"`
	JobTitle     *string `json:"job_title,omitempty"`
	CompanyID    *string `json:"company_id,omitempty"`
}

// UpdateContactRequest represents a partial contact update.
type UpdateContactRequest struct {
	Name          *string `json:"name,omitempty"`
	JobTitle      *string `json:"job_title,omitempty"`
	Stage         *int    `json:"stage,omitempty"`
	PersonaLocked *bool   `json:"persona_locked,omitempty"`
}
