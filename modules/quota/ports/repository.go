package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/quota/model"
)

// SearchKeywordRepository implements the §4.6 keyword-rotation
// primitive: always hand out the keyword least recently used.
type SearchKeywordRepository interface {
	// NextKeyword returns the persona's keyword with the smallest
	// last_used (nulls first), or nil if the persona has none.
	NextKeyword(ctx context.Context, personaID string) (*model.SearchKeyword, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time, contactsFound int) error
	Create(ctx context.Context, kw *model.SearchKeyword) error
	List(ctx context.Context, personaID string) ([]*model.SearchKeyword, error)
}

// AlertRepository persists week-scoped rate-limit alerts.
type AlertRepository interface {
	// IsBlocked reports whether an unresolved alert already exists for
	// (weekKey, personaID).
	IsBlocked(ctx context.Context, weekKey, personaID string) (bool, error)
	Raise(ctx context.Context, weekKey, personaID, detail string) error
	Resolve(ctx context.Context, id string) error
	ListUnresolved(ctx context.Context, weekKey string) ([]*model.RateLimitAlert, error)
}
