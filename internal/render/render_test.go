package render

import (
	"testing"

	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestTiles(t *testing.T) {
	books := []models.Book{
		{Key: "/works/OL1W", Title: "Dune", AuthorName: []string{"Frank Herbert", "Brian Herbert"}, CoverI: intPtr(11481354), FirstPublishYear: 1965},
		{Key: "/works/OL2W", Title: "Anonymous Tales"},
	}

	tiles := Tiles(books, "https://covers.openlibrary.org/")
	require.Len(t, tiles, 2)

	assert.Equal(t, Tile{
		Key:      "/works/OL1W",
		Title:    "Dune",
		Author:   "Frank Herbert",
		Year:     1965,
		CoverURL: "https://covers.openlibrary.org/b/id/11481354-M.jpg",
	}, tiles[0])

	assert.Equal(t, "", tiles[1].Author)
	assert.Zero(t, tiles[1].Year)
	assert.Equal(t, PlaceholderCover, tiles[1].CoverURL)
}

func TestTilesEmpty(t *testing.T) {
	assert.Empty(t, Tiles(nil, "https://covers.openlibrary.org"))
}

func TestPagerFor(t *testing.T) {
	state := models.State{
		CurrentPage: 1,
		Results:     models.ResultsPage{TotalFound: 57},
	}
	assert.Equal(t, Pager{Page: 1, TotalPages: 3, HasNext: true}, PagerFor(state))

	state.CurrentPage = 3
	assert.Equal(t, Pager{Page: 3, TotalPages: 3, HasPrev: true}, PagerFor(state))

	assert.Equal(t, Pager{Page: 1}, PagerFor(models.State{CurrentPage: 1}))
}
