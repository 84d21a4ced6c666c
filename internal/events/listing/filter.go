package listing

import (
	"strings"

	"events-portal/internal/models"
)

// Row is one event of the list view with its categories joined in.
type Row struct {
	Event         models.Event
	CategoryNames []string
	// Categories is the comma-joined display string of CategoryNames.
	Categories string
}

// CategoryLabel is what the list shows for the row's categories.
func (r Row) CategoryLabel() string {
	if len(r.CategoryNames) == 0 {
		return models.NoCategories
	}
	return r.Categories
}

// Derive joins events against categories and keeps the events matching f,
// in their original order.
func Derive(events []models.Event, categories []models.Category, f models.Filter, mode models.MatchMode) []Row {
	index := models.IndexCategories(categories)
	rows := make([]Row, 0, len(events))
	for _, event := range events {
		names := index.Names(event.CategoryIDs)
		row := Row{
			Event:         event,
			CategoryNames: names,
			Categories:    strings.Join(names, ", "),
		}
		if MatchesCategory(row, f.Category, mode) && MatchesSearch(event.Title, f.Search) {
			rows = append(rows, row)
		}
	}
	return rows
}

// MatchesSearch reports whether title contains search, ignoring case.
func MatchesSearch(title, search string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(search))
}

func MatchesCategory(row Row, selected string, mode models.MatchMode) bool {
	if selected == "" || selected == models.AllCategories {
		return true
	}
	if mode == models.MatchSubstring {
		return strings.Contains(row.Categories, selected)
	}
	for _, name := range row.CategoryNames {
		if name == selected {
			return true
		}
	}
	return false
}
