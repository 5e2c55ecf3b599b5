package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readtrack/internal/entities"
)

func TestSeed(t *testing.T) {
	books, err := Seed()
	require.NoError(t, err)
	require.Len(t, books, 3)

	ids := map[string]bool{}
	for _, b := range books {
		assert.False(t, ids[b.ID], "duplicate id %s", b.ID)
		ids[b.ID] = true

		assert.True(t, b.Status.Valid(), b.Title)
		assert.NotNil(t, b.Bookmarks)
		assert.NotNil(t, b.ReadingSessions)
		if b.PageCount > 0 {
			assert.LessOrEqual(t, b.CurrentPage, b.PageCount, b.Title)
		}
		for _, s := range b.ReadingSessions {
			assert.GreaterOrEqual(t, s.EndPage, s.StartPage)
		}
	}

	dune := books[0]
	assert.Equal(t, entities.StatusCompleted, dune.Status)
	require.NotNil(t, dune.CompletedAt)
	require.Len(t, dune.Reviews, 1)
	assert.Equal(t, 5, *dune.Reviews[0].Rating)
	assert.Equal(t, []string{"fear", "litany"}, dune.Quotes[0].Tags)

	// each call decodes a fresh copy
	again, err := Seed()
	require.NoError(t, err)
	again[0].Title = "changed"
	assert.Equal(t, "Dune", books[0].Title)
}
