package ticketing

import (
	"context"
	"strings"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

const (
	// BandsintownURL is the public REST API base
	BandsintownURL = "https://rest.bandsintown.com/"

	// DefaultBandsintownAppID is used when no app id is configured
	DefaultBandsintownAppID = "therocksalt"
)

// bandsintownEvent is the upstream event shape
type bandsintownEvent struct {
	ID          flexID `json:"id"`
	URL         string `json:"url"`
	Datetime    string `json:"datetime"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		City     string `json:"city"`
		Region   string `json:"region"`
		Country  string `json:"country"`
	} `json:"venue"`
	Lineup []string `json:"lineup"`
	Offers []struct {
		Type   string `json:"type"`
		URL    string `json:"url"`
		Status string `json:"status"`
	} `json:"offers"`
}

type bandsintownSearch struct {
	Location string `url:"location"`
	Radius   int    `url:"radius,omitempty"`
	AppID    string `url:"app_id"`
}

// Bandsintown searches upcoming events around a location
type Bandsintown struct {
	client *client
	appID  string
}

// NewBandsintown creates the adapter; an empty appID uses the default
func NewBandsintown(appID string, opts Options) *Bandsintown {
	if appID == "" {
		appID = DefaultBandsintownAppID
	}
	return &Bandsintown{
		client: newClient(opts, BandsintownURL),
		appID:  appID,
	}
}

// Name returns the source this adapter feeds
func (b *Bandsintown) Name() event.Source {
	return event.SourceBandsintown
}

// FetchEvents returns events within the hint's radius whose venue is in the
// hint's state. Failures are logged and produce an empty list.
func (b *Bandsintown) FetchEvents(ctx context.Context, hint event.LocationHint) []event.RawEvent {
	query := bandsintownSearch{
		Location: hint.City + "," + hint.State,
		Radius:   hint.RadiusMiles,
		AppID:    b.appID,
	}

	var payload []bandsintownEvent
	if err := b.client.getJSON(ctx, "events/search", query, &payload); err != nil {
		logger.Error("Bandsintown search failed", logger.Fields{
			"source":   string(event.SourceBandsintown),
			"location": query.Location,
		}, err)
		return []event.RawEvent{}
	}

	events := make([]event.RawEvent, 0, len(payload))
	for _, e := range payload {
		if hint.State != "" && !strings.EqualFold(strings.TrimSpace(e.Venue.Region), hint.State) {
			continue
		}
		events = append(events, e.raw())
	}

	logger.Info("Bandsintown events fetched", logger.Fields{
		"source":   string(event.SourceBandsintown),
		"received": len(payload),
		"kept":     len(events),
	})
	return events
}

// raw maps one upstream event onto the common shape
func (e bandsintownEvent) raw() event.RawEvent {
	title := strings.Join(nonEmpty(e.Lineup), " + ")
	if title == "" {
		title = strings.TrimSpace(e.Title)
	}

	ticketURL := e.URL
	if len(e.Offers) > 0 && e.Offers[0].URL != "" {
		ticketURL = e.Offers[0].URL
	}

	return event.RawEvent{
		Source:        event.SourceBandsintown,
		Title:         title,
		VenueName:     strings.TrimSpace(e.Venue.Name),
		VenueAddress:  strings.TrimSpace(e.Venue.Location),
		CityHint:      strings.TrimSpace(e.Venue.City),
		StateHint:     strings.ToUpper(strings.TrimSpace(e.Venue.Region)),
		StartDateTime: e.Datetime,
		SourceEventID: string(e.ID),
		DetailURL:     ticketURL,
		Description:   event.CleanText(e.Description),
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
