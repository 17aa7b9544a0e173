package curator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therocksalt/curator/internal/event"
)

func TestUtahVenues(t *testing.T) {
	venues := UtahVenues()
	require.Len(t, venues, 15)

	names := make(map[string]bool)
	slugs := make(map[string]bool)
	for _, v := range venues {
		assert.NotEmpty(t, v.Name)
		assert.Equal(t, "UT", v.State, v.Name)
		assert.False(t, names[v.Name], "duplicate name %s", v.Name)
		assert.False(t, slugs[v.Slug], "duplicate slug %s", v.Slug)
		names[v.Name] = true
		slugs[v.Slug] = true
	}
	assert.Equal(t, "Provo", venues[11].City)
}

func TestSeed(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.CreateVenue(ctx, event.Venue{Name: "kilby court", Slug: "kilby-court", City: "Salt Lake City", State: "UT"})
	require.NoError(t, err)
	_, err = s.CreateVenue(ctx, event.Venue{Name: "Soundwell SLC", Slug: "soundwell", City: "Salt Lake City", State: "UT"})
	require.NoError(t, err)

	result, err := Seed(ctx, s, UtahVenues())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 14, Existing: 1}, result)

	venues := allVenues(t, s)
	assert.Len(t, venues, 16)

	bySlug := make(map[string]event.Venue)
	for _, v := range venues {
		bySlug[v.Slug] = v
	}
	assert.Equal(t, "Soundwell", bySlug["soundwell-2"].Name, "taken slug gets a suffix")
	assert.Equal(t, event.DefaultVenueType, bySlug["velour"].VenueType)
	assert.Equal(t, "https://velourlive.com", bySlug["velour"].Website)

	again, err := Seed(ctx, s, UtahVenues())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 0, Existing: 15}, again, "seeding is idempotent")
}

func TestSeed_SkipsBlankAndDerivesSlug(t *testing.T) {
	s := testStore(t)

	result, err := Seed(context.Background(), s, []event.Venue{
		{Name: "  "},
		{Name: "Café Nightingale", City: "Ogden", State: "UT"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	venues := allVenues(t, s)
	require.Len(t, venues, 1)
	assert.Equal(t, "cafe-nightingale", venues[0].Slug)
}

func TestSeed_LoadFailure(t *testing.T) {
	_, err := Seed(context.Background(), &failingStore{Store: testStore(t), listErr: assert.AnError}, UtahVenues())
	assert.ErrorIs(t, err, assert.AnError)
}
