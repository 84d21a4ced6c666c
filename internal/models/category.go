package models

const (
	// AllCategories is the filter sentinel that matches every event.
	AllCategories = "All"
	// UnknownCategory stands in for a category id that did not resolve.
	UnknownCategory = "N/A"
	// NoCategories is displayed for events without any category ids.
	NoCategories = "No categories"
)

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// CategoryIndex maps category ids to categories for joins.
type CategoryIndex map[ID]Category

func IndexCategories(categories []Category) CategoryIndex {
	index := make(CategoryIndex, len(categories))
	for _, c := range categories {
		if _, seen := index[c.ID]; !seen {
			index[c.ID] = c
		}
	}
	return index
}

// Name resolves an id to its category name, or UnknownCategory.
func (ix CategoryIndex) Name(id ID) string {
	if c, ok := ix[id]; ok {
		return c.Name
	}
	return UnknownCategory
}

// Names resolves every id in order.
func (ix CategoryIndex) Names(ids []ID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, ix.Name(id))
	}
	return names
}
