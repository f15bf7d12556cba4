package model

// CreateCompanyRequest represents a create company request
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// UpdateCompanyRequest represents an update company request
type UpdateCompanyRequest struct {
	Name     *string  `json:"name,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
	Domains  []string `json:"domains,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}
