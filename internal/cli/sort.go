package cli

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByVenue SortOrder = "venue"
	SortByTitle SortOrder = "title"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByVenue, SortByTitle:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort: %s (must be 'date', 'venue' or 'title')", s)
	}
}

// sortRows sorts event rows based on the specified sort order
func sortRows(rows []EventRow, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(rows, func(i, j int) bool {
			return compareByDate(rows[i], rows[j])
		})
	case SortByVenue:
		sort.SliceStable(rows, func(i, j int) bool {
			vi, vj := venueName(rows[i]), venueName(rows[j])
			if vi != vj {
				return vi < vj
			}
			// If venues are equal, sort by date
			return compareByDate(rows[i], rows[j])
		})
	case SortByTitle:
		sort.SliceStable(rows, func(i, j int) bool {
			ti, tj := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(rows[i], rows[j])
		})
	}
}

// compareByDate compares two rows by their naive start times, which sort
// lexically; ties fall back to the title
func compareByDate(i, j EventRow) bool {
	if i.StartTime != j.StartTime {
		return i.StartTime < j.StartTime
	}
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}

func venueName(row EventRow) string {
	if row.Venue == nil {
		return ""
	}
	return strings.ToLower(row.Venue.Name)
}
