package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"events-portal/internal/models"
)

func fixture() ([]models.Event, []models.Category) {
	events := []models.Event{
		{ID: "1", Title: "Badminton", CategoryIDs: []models.ID{"1", "2"}},
		{ID: "2", Title: "Gallery walk", CategoryIDs: []models.ID{"3"}},
		{ID: "3", Title: "Birthday bash", CategoryIDs: []models.ID{"4"}},
		{ID: "4", Title: "Quiet evening"},
	}
	categories := []models.Category{
		{ID: "1", Name: "sports"},
		{ID: "2", Name: "games"},
		{ID: "3", Name: "art"},
		{ID: "4", Name: "Party"},
	}
	return events, categories
}

func titles(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Event.Title)
	}
	return out
}

func TestDeriveAllKeepsOrder(t *testing.T) {
	events, categories := fixture()
	rows := Derive(events, categories, models.NewFilter("", ""), models.MatchExact)

	assert.Equal(t, []string{"Badminton", "Gallery walk", "Birthday bash", "Quiet evening"}, titles(rows))
	assert.Equal(t, "sports, games", rows[0].Categories)
	assert.Equal(t, models.NoCategories, rows[3].CategoryLabel())
}

func TestDeriveSearchIgnoresCase(t *testing.T) {
	events, categories := fixture()

	rows := Derive(events, categories, models.NewFilter("BAD", ""), models.MatchExact)
	assert.Equal(t, []string{"Badminton"}, titles(rows))

	rows = Derive(events, categories, models.NewFilter("b", "All"), models.MatchExact)
	assert.Equal(t, []string{"Badminton", "Birthday bash"}, titles(rows))
}

func TestDeriveCategoryExact(t *testing.T) {
	events, categories := fixture()

	rows := Derive(events, categories, models.NewFilter("", "art"), models.MatchExact)
	assert.Equal(t, []string{"Gallery walk"}, titles(rows))

	rows = Derive(events, categories, models.NewFilter("", "games"), models.MatchExact)
	assert.Equal(t, []string{"Badminton"}, titles(rows))
}

func TestDeriveCategorySubstring(t *testing.T) {
	events, categories := fixture()

	// "art" is contained in "Party", so the party event matches too.
	rows := Derive(events, categories, models.NewFilter("", "art"), models.MatchSubstring)
	assert.Equal(t, []string{"Gallery walk", "Birthday bash"}, titles(rows))

	rows = Derive(events, categories, models.NewFilter("", "ames"), models.MatchSubstring)
	assert.Equal(t, []string{"Badminton"}, titles(rows))
}

func TestDeriveCombinesSearchAndCategory(t *testing.T) {
	events, categories := fixture()
	rows := Derive(events, categories, models.NewFilter("gallery", "sports"), models.MatchExact)
	assert.Empty(t, rows)
}

func TestDeriveUnknownCategoryName(t *testing.T) {
	events := []models.Event{{ID: "9", Title: "Orphan", CategoryIDs: []models.ID{"77"}}}
	rows := Derive(events, nil, models.NewFilter("", ""), models.MatchExact)
	assert.Equal(t, []string{models.UnknownCategory}, rows[0].CategoryNames)
}
