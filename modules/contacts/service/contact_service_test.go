package service

import (
	"context"
	"testing"

	"github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockContactRepository struct {
	CreateFunc                   func(ctx context.Context, contact *model.Contact) error
	GetByIDFunc                  func(ctx context.Context, contactID string) (*model.Contact, error)
	GetByEmailsFunc              func(ctx context.Context, emails []string) (map[string]*model.Contact, error)
	GetByLinkedInURLsFunc        func(ctx context.Context, urls []string) (map[string]*model.Contact, error)
	ListFunc                     func(ctx context.Context, opts *ports.ListOptions) ([]*model.ContactDTO, int, error)
	UpdateFunc                   func(ctx context.Context, contact *model.Contact) error
	DeleteFunc                   func(ctx context.Context, contactID string) error
	BulkUpsertFunc               func(ctx context.Context, rows []*model.PreparedRow) ([]*ports.UpsertResult, []*model.ConflictRow, error)
	FlagForReclassificationFunc  func(ctx context.Context, contactID string) error
	ListForReclassificationFunc  func(ctx context.Context, afterID string, limit int) ([]*model.Contact, error)
	UpdatePersonaFunc            func(ctx context.Context, contactID, personaID, personaName string) error
	CountCreatedSinceFunc        func(ctx context.Context, sourceTag, personaID, weekStart string) (int, error)
	CountByPersonaFunc           func(ctx context.Context) (map[string]int, int, error)
	ListByWebinarEventFunc       func(ctx context.Context, eventID string) ([]*model.Contact, error)
}

func (m *MockContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contact)
	}
	return nil
}

func (m *MockContactRepository) GetByID(ctx context.Context, contactID string) (*model.Contact, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, contactID)
	}
	return nil, nil
}

func (m *MockContactRepository) GetByEmails(ctx context.Context, emails []string) (map[string]*model.Contact, error) {
	if m.GetByEmailsFunc != nil {
		return m.GetByEmailsFunc(ctx, emails)
	}
	return nil, nil
}

func (m *MockContactRepository) GetByLinkedInURLs(ctx context.Context, urls []string) (map[string]*model.Contact, error) {
	if m.GetByLinkedInURLsFunc != nil {
		return m.GetByLinkedInURLsFunc(ctx, urls)
	}
	return nil, nil
}

func (m *MockContactRepository) List(ctx context.Context, opts *ports.ListOptions) ([]*model.ContactDTO, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, opts)
	}
	return nil, 0, nil
}

func (m *MockContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, contact)
	}
	return nil
}

func (m *MockContactRepository) Delete(ctx context.Context, contactID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, contactID)
	}
	return nil
}

func (m *MockContactRepository) BulkUpsert(ctx context.Context, rows []*model.PreparedRow) ([]*ports.UpsertResult, []*model.ConflictRow, error) {
	if m.BulkUpsertFunc != nil {
		return m.BulkUpsertFunc(ctx, rows)
	}
	return nil, nil, nil
}

func (m *MockContactRepository) FlagForReclassification(ctx context.Context, contactID string) error {
	if m.FlagForReclassificationFunc != nil {
		return m.FlagForReclassificationFunc(ctx, contactID)
	}
	return nil
}

func (m *MockContactRepository) ListForReclassification(ctx context.Context, afterID string, limit int) ([]*model.Contact, error) {
	if m.ListForReclassificationFunc != nil {
		return m.ListForReclassificationFunc(ctx, afterID, limit)
	}
	return nil, nil
}

func (m *MockContactRepository) UpdatePersona(ctx context.Context, contactID string, personaID, personaName string) error {
	if m.UpdatePersonaFunc != nil {
		return m.UpdatePersonaFunc(ctx, contactID, personaID, personaName)
	}
	return nil
}

func (m *MockContactRepository) CountCreatedSince(ctx context.Context, sourceTag, personaID string, weekStart string) (int, error) {
	if m.CountCreatedSinceFunc != nil {
		return m.CountCreatedSinceFunc(ctx, sourceTag, personaID, weekStart)
	}
	return 0, nil
}

func (m *MockContactRepository) CountByPersona(ctx context.Context) (map[string]int, int, error) {
	if m.CountByPersonaFunc != nil {
		return m.CountByPersonaFunc(ctx)
	}
	return nil, 0, nil
}

func (m *MockContactRepository) ListByWebinarEvent(ctx context.Context, eventID string) ([]*model.Contact, error) {
	if m.ListByWebinarEventFunc != nil {
		return m.ListByWebinarEventFunc(ctx, eventID)
	}
	return nil, nil
}

func TestContactService_Create(t *testing.T) {
	t.Run("creates contact successfully with email and linkedin", func(t *testing.T) {
		mockRepo := &MockContactRepository{
			CreateFunc: func(ctx context.Context, contact *model.Contact) error {
				contact.ID = "contact-1"
				return nil
			},
		}
		svc := NewContactService(mockRepo)
		email := "Jane.Doe@example.com"
		url := "https://www.linkedin.com/in/janedoe/"
		req := &model.CreateContactRequest{Name: "Jane Doe", Email: &email, LinkedInURL: &url}

		result, err := svc.Create(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "contact-1", result.ID)
		require.NotEmpty(t, result.Emails)
		assert.Equal(t, "jane.doe@example.com", result.Emails[0].Email)
	})

	t.Run("rejects row with neither name nor linkedin url", func(t *testing.T) {
		mockRepo := &MockContactRepository{}
		svc := NewContactService(mockRepo)
		req := &model.CreateContactRequest{Name: "   "}

		result, err := svc.Create(context.Background(), req)

		assert.Nil(t, result)
		assert.Equal(t, model.ErrIdentifiersRequired, err)
	})

	t.Run("accepts a linkedin-only row with blank name", func(t *testing.T) {
		mockRepo := &MockContactRepository{
			CreateFunc: func(ctx context.Context, contact *model.Contact) error {
				contact.ID = "contact-2"
				return nil
			},
		}
		svc := NewContactService(mockRepo)
		url := "https://www.linkedin.com/in/janedoe/"
		req := &model.CreateContactRequest{Name: "", LinkedInURL: &url}

		result, err := svc.Create(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "contact-2", result.ID)
	})
}

func TestContactService_Update(t *testing.T) {
	contactID := "contact-1"

	t.Run("rejects out-of-range stage", func(t *testing.T) {
		mockRepo := &MockContactRepository{
			GetByIDFunc: func(ctx context.Context, cid string) (*model.Contact, error) {
				return &model.Contact{ID: contactID, Stage: 1}, nil
			},
		}
		svc := NewContactService(mockRepo)
		badStage := 9
		req := &model.UpdateContactRequest{Stage: &badStage}

		result, err := svc.Update(context.Background(), contactID, req)

		assert.Nil(t, result)
		assert.Equal(t, model.ErrInvalidStage, err)
	})

	t.Run("updates stage successfully", func(t *testing.T) {
		mockRepo := &MockContactRepository{
			GetByIDFunc: func(ctx context.Context, cid string) (*model.Contact, error) {
				return &model.Contact{ID: contactID, Stage: 1}, nil
			},
			UpdateFunc: func(ctx context.Context, contact *model.Contact) error {
				return nil
			},
		}
		svc := NewContactService(mockRepo)
		newStage := 3
		req := &model.UpdateContactRequest{Stage: &newStage}

		result, err := svc.Update(context.Background(), contactID, req)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Stage)
	})
}

func TestContactService_Delete(t *testing.T) {
	t.Run("returns error when contact not found", func(t *testing.T) {
		mockRepo := &MockContactRepository{
			GetByIDFunc: func(ctx context.Context, cid string) (*model.Contact, error) {
				return nil, model.ErrContactNotFound
			},
		}
		svc := NewContactService(mockRepo)
		err := svc.Delete(context.Background(), "contact-1")

		assert.Equal(t, model.ErrContactNotFound, err)
	})
}
