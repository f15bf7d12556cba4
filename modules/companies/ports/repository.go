package ports

import (
	"context"

	"github.com/andreypavlenko/crmcore/modules/companies/model"
)

// ListOptions defines options for listing companies
type ListOptions struct {
	Limit   int
	Offset  int
	SortBy  string // "name", "created_at"
	SortDir string // "asc", "desc"
}

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, companyID string) (*model.Company, error)
	GetByNormalizedNames(ctx context.Context, normalizedNames []string) (map[string]*model.Company, error)
	// ResolveOrCreate is the bulk company-resolution primitive of spec
	// §4.3 step 4: one query for existing rows, one unordered bulk
	// upsert (set_on_insert only) for the rest, keyed by normalized_name.
	ResolveOrCreate(ctx context.Context, rawNames []string) (map[string]*model.Company, error)
	List(ctx context.Context, opts *ListOptions) ([]*model.CompanyDTO, int, error)
	Update(ctx context.Context, company *model.Company) error
	Delete(ctx context.Context, companyID string) error
	ContactsCount(ctx context.Context, companyID string) (int, error)
	// RefreshMergeCandidatesCache recomputes the domain-sharing and
	// similar-name groups over all active companies and persists them,
	// replacing the previous cache (spec §4.4 "merge-candidates cache
	// refresh"). Returns the number of domain groups and name groups found.
	RefreshMergeCandidatesCache(ctx context.Context) (domainGroups int, nameGroups int, err error)
	ListMergeCandidates(ctx context.Context, groupType string) ([]*model.MergeCandidateGroup, error)
}
