package service

import (
	"strings"

	"context"

	"github.com/andreypavlenko/crmcore/modules/tags/model"
	"github.com/andreypavlenko/crmcore/modules/tags/ports"
)

const contactEntityType = "contact"

type TagService struct {
	repo ports.TagRepository
}

func NewTagService(repo ports.TagRepository) *TagService {
	return &TagService{repo: repo}
}

func (s *TagService) Create(ctx context.Context, userID string, req *model.CreateTagRequest) (*model.TagDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrTagNameRequired
	}

	tag := &model.Tag{
		UserID: userID,
		Name:   name,
		Color:  req.Color,
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag.ToDTO(), nil
}

func (s *TagService) List(ctx context.Context, userID string) ([]*model.TagDTO, error) {
	tags, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDTOs(tags), nil
}

func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	return s.repo.Delete(ctx, userID, tagID)
}

// TagContact attaches a tag to a contact by inserting a tag_relations row.
// tag_relations has no unique constraint on (tag_id, entity_id), so repeated
// calls for the same pair are not deduplicated: each inserts another row.
func (s *TagService) TagContact(ctx context.Context, tagID, contactID string) error {
	rel := &model.TagRelation{
		TagID:      tagID,
		EntityType: contactEntityType,
		EntityID:   contactID,
	}
	return s.repo.AddRelation(ctx, rel)
}

func (s *TagService) UntagContact(ctx context.Context, tagID, contactID string) error {
	return s.repo.RemoveRelation(ctx, tagID, contactID)
}

func (s *TagService) ListForContact(ctx context.Context, contactID string) ([]*model.TagDTO, error) {
	tags, err := s.repo.ListByEntity(ctx, contactEntityType, contactID)
	if err != nil {
		return nil, err
	}
	return toDTOs(tags), nil
}

func toDTOs(tags []*model.Tag) []*model.TagDTO {
	dtos := make([]*model.TagDTO, len(tags))
	for i, t := range tags {
		dtos[i] = t.ToDTO()
	}
	return dtos
}
