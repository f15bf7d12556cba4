package service

import (
	"context"
	"strings"

	"github.com/andreypavlenko/crmcore/modules/companies/model"
	"github.com/andreypavlenko/crmcore/modules/companies/ports"
)

// CompanyService handles company business logic
type CompanyService struct {
	repo ports.CompanyRepository
}

func NewCompanyService(repo ports.CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

func (s *CompanyService) Create(ctx context.Context, req *model.CreateCompanyRequest) (*model.CompanyDTO, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, model.ErrCompanyNameRequired
	}

	company := &model.Company{
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
		Source:   "manual",
	}

	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company.ToDTO(), nil
}

func (s *CompanyService) GetByID(ctx context.Context, companyID string) (*model.CompanyDTO, error) {
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	dto := company.ToDTO()
	count, err := s.repo.ContactsCount(ctx, companyID)
	if err != nil {
		return nil, err
	}
	dto.ContactsCount = count
	return dto, nil
}

func (s *CompanyService) List(ctx context.Context, opts *ports.ListOptions) ([]*model.CompanyDTO, int, error) {
	return s.repo.List(ctx, opts)
}

func (s *CompanyService) Update(ctx context.Context, companyID string, req *model.UpdateCompanyRequest) (*model.CompanyDTO, error) {
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, model.ErrCompanyNameRequired
		}
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Aliases != nil {
		company.Aliases = req.Aliases
	}
	if req.Domains != nil {
		company.Domains = req.Domains
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company.ToDTO(), nil
}

func (s *CompanyService) Delete(ctx context.Context, companyID string) error {
	if _, err := s.repo.GetByID(ctx, companyID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, companyID)
}

// ResolveOrCreate exposes the bulk company-resolution primitive to the
// import worker (spec §4.3 step 4).
func (s *CompanyService) ResolveOrCreate(ctx context.Context, rawNames []string) (map[string]*model.Company, error) {
	return s.repo.ResolveOrCreate(ctx, rawNames)
}

// RefreshMergeCandidatesCache is called by the scheduler's daily
// merge-candidates job (spec §4.4).
func (s *CompanyService) RefreshMergeCandidatesCache(ctx context.Context) (int, int, error) {
	return s.repo.RefreshMergeCandidatesCache(ctx)
}

func (s *CompanyService) ListMergeCandidates(ctx context.Context, groupType string) ([]*model.MergeCandidateGroup, error) {
	return s.repo.ListMergeCandidates(ctx, groupType)
}
