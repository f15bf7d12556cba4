package calendar

import (
	"context"

	"github.com/andreypavlenko/crmcore/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Adapter is the narrow Calendar collaborator spec §6 describes: reads
// attendee email lists given OAuth credentials. No module constructs or
// calls it; the aggregator's "current cases" section reads checklist
// and role data only.
type Adapter struct {
	calendarID string
	oauth      *oauth2.Config
	token      *oauth2.Token
}

func New(cfg config.CalendarConfig) *Adapter {
	return &Adapter{
		calendarID: cfg.CalendarID,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
		},
		token: &oauth2.Token{RefreshToken: cfg.RefreshToken},
	}
}

// ListAttendees returns the attendee emails of every event starting
// within the given time window.
func (a *Adapter) ListAttendees(ctx context.Context, timeMinRFC3339, timeMaxRFC3339 string) ([]string, error) {
	httpClient := a.oauth.Client(ctx, a.token)
	svc, err := gcalendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	events, err := svc.Events.List(a.calendarID).
		TimeMin(timeMinRFC3339).
		TimeMax(timeMaxRFC3339).
		SingleEvents(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	var emails []string
	for _, ev := range events.Items {
		for _, att := range ev.Attendees {
			if att.Email != "" {
				emails = append(emails, att.Email)
			}
		}
	}
	return emails, nil
}
