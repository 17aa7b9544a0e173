package ticketing

import (
	"context"
	"fmt"
	"strings"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

const (
	// SongkickURL is the v3 API base
	SongkickURL = "https://api.songkick.com/api/3.0/"

	// SaltLakeCityMetroID is Songkick's metro area id for Salt Lake City
	SaltLakeCityMetroID = 17318

	songkickPageSize = 50
	songkickMaxPages = 5
)

type songkickEvent struct {
	ID          flexID `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	URI         string `json:"uri"`
	Status      string `json:"status"`
	Start       struct {
		Date     string `json:"date"`
		Datetime string `json:"datetime"`
		Time     string `json:"time"`
	} `json:"start"`
	Location struct {
		City string `json:"city"`
	} `json:"location"`
	Venue struct {
		ID          flexID `json:"id"`
		DisplayName string `json:"displayName"`
		MetroArea   struct {
			DisplayName string `json:"displayName"`
			State       struct {
				DisplayName string `json:"displayName"`
			} `json:"state"`
		} `json:"metroArea"`
	} `json:"venue"`
	AgeRestriction *string `json:"ageRestriction"`
}

type songkickCalendar struct {
	ResultsPage struct {
		Status       string `json:"status"`
		TotalEntries int    `json:"totalEntries"`
		PerPage      int    `json:"perPage"`
		Page         int    `json:"page"`
		Results      struct {
			Event []songkickEvent `json:"event"`
		} `json:"results"`
	} `json:"resultsPage"`
}

type songkickQuery struct {
	APIKey  string `url:"apikey"`
	Page    int    `url:"page,omitempty"`
	PerPage int    `url:"per_page,omitempty"`
}

// Songkick reads a metro area's event calendar
type Songkick struct {
	client   *client
	apiKey   string
	metroID  int
	maxPages int
}

// NewSongkick creates the adapter. A zero metroID uses Salt Lake City.
func NewSongkick(apiKey string, metroID int, opts Options) *Songkick {
	if metroID == 0 {
		metroID = SaltLakeCityMetroID
	}
	return &Songkick{
		client:   newClient(opts, SongkickURL),
		apiKey:   apiKey,
		metroID:  metroID,
		maxPages: songkickMaxPages,
	}
}

// Name returns the source this adapter feeds
func (s *Songkick) Name() event.Source {
	return event.SourceSongkick
}

// FetchEvents returns the metro calendar filtered to the hint's state.
// Without an API key it warns and returns nothing.
func (s *Songkick) FetchEvents(ctx context.Context, hint event.LocationHint) []event.RawEvent {
	if s.apiKey == "" {
		logger.Warn("Songkick API key not configured, skipping", logger.Fields{
			"source": string(event.SourceSongkick),
		})
		return []event.RawEvent{}
	}

	path := fmt.Sprintf("metro_areas/%d/calendar.json", s.metroID)
	var received []songkickEvent

	for page := 1; page <= s.maxPages; page++ {
		var cal songkickCalendar
		query := songkickQuery{APIKey: s.apiKey, Page: page, PerPage: songkickPageSize}
		if err := s.client.getJSON(ctx, path, query, &cal); err != nil {
			logger.Error("Songkick calendar request failed", logger.Fields{
				"source":   string(event.SourceSongkick),
				"metro_id": s.metroID,
				"page":     page,
			}, err)
			// Keep what earlier pages returned
			break
		}

		batch := cal.ResultsPage.Results.Event
		received = append(received, batch...)

		perPage := cal.ResultsPage.PerPage
		if perPage <= 0 {
			perPage = songkickPageSize
		}
		if len(batch) == 0 || page*perPage >= cal.ResultsPage.TotalEntries {
			break
		}
	}

	events := make([]event.RawEvent, 0, len(received))
	for _, e := range received {
		if hint.State != "" && !strings.EqualFold(strings.TrimSpace(e.Venue.MetroArea.State.DisplayName), hint.State) {
			continue
		}
		events = append(events, e.raw())
	}

	logger.Info("Songkick events fetched", logger.Fields{
		"source":   string(event.SourceSongkick),
		"received": len(received),
		"kept":     len(events),
	})
	return events
}

func (e songkickEvent) raw() event.RawEvent {
	start := e.Start.Datetime
	if start == "" {
		start = e.Start.Date
	}

	// location.city reads like "Salt Lake City, UT, US"
	city := e.Location.City
	if i := strings.Index(city, ","); i >= 0 {
		city = city[:i]
	}

	raw := event.RawEvent{
		Source:        event.SourceSongkick,
		Title:         strings.TrimSpace(e.DisplayName),
		VenueName:     strings.TrimSpace(e.Venue.DisplayName),
		CityHint:      strings.TrimSpace(city),
		StateHint:     strings.ToUpper(strings.TrimSpace(e.Venue.MetroArea.State.DisplayName)),
		StartDateTime: start,
		SourceEventID: string(e.ID),
		DetailURL:     e.URI,
		Category:      e.Type,
	}
	if e.AgeRestriction != nil {
		raw.AgeRestriction = strings.TrimSpace(*e.AgeRestriction)
	}
	return raw
}
