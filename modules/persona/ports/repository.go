package ports

import (
	"context"

	"github.com/andreypavlenko/crmcore/modules/persona/model"
)

// KeywordRepository defines data access for keywords and persona
// priorities (spec §4.2). AllKeywords/AllPriorities back the
// classifier's process-local cache snapshot.
type KeywordRepository interface {
	AllKeywords(ctx context.Context) ([]*model.Keyword, error)
	AllPriorities(ctx context.Context) ([]*model.Priority, error)
	GetByKeyword(ctx context.Context, keywordNormalized string) (*model.Keyword, error)
	Create(ctx context.Context, keyword *model.Keyword) error
	Replace(ctx context.Context, keyword *model.Keyword) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, personaID string) ([]*model.Keyword, error)
}
