// Package service implements the traffic-light aggregator and its
// "current cases" special section (spec §4.5), grounded on
// scheduler_worker.py's periodic-job style for the tree computation
// and on test_delivery_ganados.py / test_case_level_roles.py for the
// case/checklist/roles CRUD surface.
package service

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/modules/aggregator/model"
	"github.com/andreypavlenko/crmcore/modules/aggregator/ports"
	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	newsletterports "github.com/andreypavlenko/crmcore/modules/newsletter/ports"
	personaports "github.com/andreypavlenko/crmcore/modules/persona/ports"
	quotaports "github.com/andreypavlenko/crmcore/modules/quota/ports"
	webinarports "github.com/andreypavlenko/crmcore/modules/webinar/ports"
	"github.com/google/uuid"
)

func newID() string { return uuid.New().String() }

// Service implements the aggregator (spec §4.5): computed section
// status plus the "current cases" CRUD surface the checklist workflow
// needs (create column, check/uncheck cell, change case status, set
// contact roles).
type Service struct {
	cases          ports.CaseRepository
	personas       personaports.KeywordRepository
	contacts       contactsports.ContactRepository
	alerts         quotaports.AlertRepository
	webinarEvents  webinarports.EventRepository
	newsletters    newsletterports.NewsletterRepository
	goalPerFinder  int
	log            *logger.Logger
}

func NewService(
	cases ports.CaseRepository,
	personas personaports.KeywordRepository,
	contacts contactsports.ContactRepository,
	alerts quotaports.AlertRepository,
	webinarEvents webinarports.EventRepository,
	newsletters newsletterports.NewsletterRepository,
	goalPerFinder int,
	log *logger.Logger,
) *Service {
	return &Service{
		cases:         cases,
		personas:      personas,
		contacts:      contacts,
		alerts:        alerts,
		webinarEvents: webinarEvents,
		newsletters:   newsletters,
		goalPerFinder: goalPerFinder,
		log:           log,
	}
}

func (s *Service) CreateCase(ctx context.Context, name, stage string, contactIDs []string) (*model.Case, error) {
	c := &model.Case{Name: name, Stage: stage, ContactIDs: contactIDs}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCaseStatus(ctx context.Context, caseID, status string) error {
	if !model.ValidStatus(status) {
		return model.ErrInvalidStatus
	}
	existing, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.ErrCaseNotFound
	}
	return s.cases.UpdateStatus(ctx, caseID, status)
}

func (s *Service) AddChecklistColumn(ctx context.Context, caseID, groupID, title string, dueDate time.Time) (string, error) {
	column := model.ChecklistColumn{ID: newID(), Title: title, DueDate: dueDate}
	if err := s.cases.AddChecklistColumn(ctx, caseID, groupID, column); err != nil {
		return "", err
	}
	return column.ID, nil
}

func (s *Service) SetChecklistCell(ctx context.Context, caseID, groupID, contactID, columnID string, checked bool) error {
	existing, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.ErrCaseNotFound
	}
	return s.cases.SetChecklistCell(ctx, caseID, groupID, contactID, columnID, checked, time.Now().UTC())
}

func (s *Service) SetContactRoles(ctx context.Context, caseID, contactID string, roles []string) error {
	return s.cases.SetContactRoles(ctx, caseID, contactID, roles)
}

func (s *Service) ListCasesByContact(ctx context.Context, contactID string) ([]*model.Case, error) {
	return s.cases.ListByContactID(ctx, contactID)
}
