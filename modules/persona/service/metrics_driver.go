package service

import (
	"context"

	contactsports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/andreypavlenko/crmcore/modules/persona/model"
	"github.com/andreypavlenko/crmcore/modules/persona/ports"
)

// MetricsDriver takes a classifier distribution snapshot (spec §4.4
// "classifier metrics snapshot", every 6h).
type MetricsDriver struct {
	contacts contactsports.ContactRepository
	metrics  ports.MetricsRepository
}

func NewMetricsDriver(contacts contactsports.ContactRepository, metrics ports.MetricsRepository) *MetricsDriver {
	return &MetricsDriver{contacts: contacts, metrics: metrics}
}

// Run counts every contact by persona_id and persists the snapshot.
func (d *MetricsDriver) Run(ctx context.Context) error {
	counts, total, err := d.contacts.CountByPersona(ctx)
	if err != nil {
		return err
	}
	snap := &model.MetricsSnapshot{
		PersonaCounts: counts,
		DefaultCount:  counts[model.DefaultPersonaID],
		TotalContacts: total,
	}
	return d.metrics.SaveSnapshot(ctx, snap)
}
