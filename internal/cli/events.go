package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/therocksalt/curator/internal/calendar"
	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/store"
)

// DefaultCalendarName titles exported calendars
const DefaultCalendarName = "The Rock Salt: Utah Shows"

var (
	flagEventsFormat  string
	flagEventsSource  string
	flagEventsVenueID int64
	flagEventsFrom    string
	flagEventsTo      string
	flagEventsLimit   int
	flagEventsSort    string
	flagEventsOutput  string
	flagEventsName    string
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List or export stored events",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE:  runEventsList,
	}
	addEventFilterFlags(list)
	list.Flags().StringVar(&flagEventsFormat, "format", "text", "Output format: text or json")
	list.Flags().StringVar(&flagEventsSort, "sort", "date", "Sort order: date, venue or title")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export stored events as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE:  runEventsExport,
	}
	addEventFilterFlags(export)
	export.Flags().StringVarP(&flagEventsOutput, "output", "o", "", "Write to this file instead of stdout")
	export.Flags().StringVar(&flagEventsName, "name", DefaultCalendarName, "Calendar name")

	cmd.AddCommand(list, export)
	return cmd
}

func addEventFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagEventsSource, "source", "", "Only events from this source")
	cmd.Flags().Int64Var(&flagEventsVenueID, "venue-id", 0, "Only events at this venue")
	cmd.Flags().StringVar(&flagEventsFrom, "from", "", "Earliest start (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)")
	cmd.Flags().StringVar(&flagEventsTo, "to", "", "Latest start, inclusive (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)")
	cmd.Flags().IntVar(&flagEventsLimit, "limit", 0, "Maximum number of events (0 = all)")
}

func eventFilter() (store.EventFilter, error) {
	f := store.EventFilter{
		VenueID: flagEventsVenueID,
		From:    flagEventsFrom,
		To:      flagEventsTo,
		Limit:   flagEventsLimit,
	}
	if flagEventsSource != "" {
		src, err := event.ParseSource(flagEventsSource)
		if err != nil {
			return f, err
		}
		f.Source = src
	}
	return f, nil
}

// loadRows lists events matching the flags and joins their venues
func loadRows(cmd *cobra.Command, a *app) ([]EventRow, map[int64]event.Venue, error) {
	filter, err := eventFilter()
	if err != nil {
		return nil, nil, err
	}

	events, err := a.store.ListEvents(cmd.Context(), filter)
	if err != nil {
		return nil, nil, fmt.Errorf("listing events: %w", err)
	}
	venues, err := a.store.ListVenues(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("listing venues: %w", err)
	}

	byID := make(map[int64]event.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}

	rows := make([]EventRow, len(events))
	for i, e := range events {
		rows[i] = EventRow{Event: e}
		if v, ok := byID[e.VenueID]; ok {
			rows[i].Venue = &v
		}
	}
	return rows, byID, nil
}

func runEventsList(cmd *cobra.Command, _ []string) error {
	format, err := ParseFormat(flagEventsFormat)
	if err != nil {
		return err
	}
	order, err := ParseSortOrder(flagEventsSort)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, _, err := loadRows(cmd, a)
	if err != nil {
		return err
	}
	sortRows(rows, order)
	return WriteEvents(cmd.OutOrStdout(), rows, format, flagVerbose)
}

func runEventsExport(cmd *cobra.Command, _ []string) (err error) {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, venues, err := loadRows(cmd, a)
	if err != nil {
		return err
	}
	events := make([]event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.Event
	}

	ics := calendar.New(flagEventsName, a.loc).GenerateICS(events, venues)

	var out io.Writer = cmd.OutOrStdout()
	if flagEventsOutput != "" {
		f, err := os.Create(flagEventsOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		out = f
	}

	if _, err := io.WriteString(out, ics); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}
