package ports

import (
	"context"

	"github.com/andreypavlenko/crmcore/modules/tags/model"
)

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	List(ctx context.Context, userID string) ([]*model.Tag, error)
	Delete(ctx context.Context, userID, tagID string) error
	AddRelation(ctx context.Context, rel *model.TagRelation) error
	RemoveRelation(ctx context.Context, tagID, entityID string) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.Tag, error)
}
