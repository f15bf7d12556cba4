package ports

import (
	"context"

	"github.com/andreypavlenko/crmcore/modules/persona/model"
)

// MetricsRepository persists classifier distribution snapshots.
type MetricsRepository interface {
	SaveSnapshot(ctx context.Context, snap *model.MetricsSnapshot) error
}
