package service

import (
	"context"
	"strings"

	"github.com/andreypavlenko/crmcore/internal/textnorm"
	"github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/contacts/ports"
)

// ContactService handles contact business logic. Grounded on
// modules/companies/service/company_service.go.
type ContactService struct {
	repo ports.ContactRepository
}

func NewContactService(repo ports.ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) Create(ctx context.Context, req *model.CreateContactRequest) (*model.ContactDTO, error) {
	if strings.TrimSpace(req.Name) == "" && (req.LinkedInURL == nil || *req.LinkedInURL == "") {
		return nil, model.ErrIdentifiersRequired
	}

	contact := &model.Contact{
		Name:   strings.TrimSpace(req.Name),
		Stage:  model.StageMin,
		Source: "manual",
	}
	if req.Email != nil {
		if normalized, ok := textnorm.NormalizeEmail(*req.Email); ok {
			contact.PrimaryEmail = &normalized
			contact.Emails = []model.Email{{Email: normalized, IsPrimary: true}}
		}
	}
	if req.LinkedInURL != nil {
		if normalized, err := textnorm.NormalizeLinkedInURL(*req.LinkedInURL); err == nil {
			contact.LinkedInURL = req.LinkedInURL
			contact.LinkedInURLNorm = &normalized
		}
	}
	if req.JobTitle != nil {
		title := textnorm.NormalizeJobTitle(*req.JobTitle)
		contact.JobTitle = req.JobTitle
		contact.JobTitleNormalized = &title
	}
	if req.CompanyID != nil {
		contact.PrimaryCompanyID = req.CompanyID
		contact.Companies = []model.CompanyLink{{CompanyID: *req.CompanyID, IsPrimary: true}}
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact.ToDTO(), nil
}

func (s *ContactService) GetByID(ctx context.Context, contactID string) (*model.ContactDTO, error) {
	contact, err := s.repo.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return contact.ToDTO(), nil
}

func (s *ContactService) List(ctx context.Context, opts *ports.ListOptions) ([]*model.ContactDTO, int, error) {
	return s.repo.List(ctx, opts)
}

func (s *ContactService) Update(ctx context.Context, contactID string, req *model.UpdateContactRequest) (*model.ContactDTO, error) {
	contact, err := s.repo.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.JobTitle != nil {
		title := textnorm.NormalizeJobTitle(*req.JobTitle)
		contact.JobTitle = req.JobTitle
		contact.JobTitleNormalized = &title
	}
	if req.Stage != nil {
		if *req.Stage < model.StageMin || *req.Stage > model.StageMax {
			return nil, model.ErrInvalidStage
		}
		contact.Stage = *req.Stage
	}
	if req.PersonaLocked != nil {
		contact.PersonaLocked = *req.PersonaLocked
	}

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact.ToDTO(), nil
}

func (s *ContactService) Delete(ctx context.Context, contactID string) error {
	if _, err := s.repo.GetByID(ctx, contactID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, contactID)
}
