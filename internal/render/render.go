package render

import (
	"fmt"
	"strings"

	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/samber/lo"
)

// PlaceholderCover is shown for books without a cover id
const PlaceholderCover = "https://openlibrary.org/images/icons/avatar_book-sm.png"

// Tile is the visual representation of one book in the results grid
type Tile struct {
	Key      string
	Title    string
	Author   string
	Year     int
	CoverURL string
}

// Pager describes the pagination controls for a state
type Pager struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// CoverURL derives the medium-size cover image URL for a cover id
func CoverURL(coversBase string, coverID *int) string {
	if coverID == nil {
		return PlaceholderCover
	}
	return fmt.Sprintf("%s/b/id/%d-M.jpg", strings.TrimRight(coversBase, "/"), *coverID)
}

// Tiles maps books to tiles in order
func Tiles(books []models.Book, coversBase string) []Tile {
	return lo.Map(books, func(book models.Book, _ int) Tile {
		return Tile{
			Key:      book.Key,
			Title:    book.Title,
			Author:   book.PrimaryAuthor(),
			Year:     book.FirstPublishYear,
			CoverURL: CoverURL(coversBase, book.CoverI),
		}
	})
}

// PagerFor derives the pagination controls from a session snapshot
func PagerFor(state models.State) Pager {
	return Pager{
		Page:       state.CurrentPage,
		TotalPages: state.Results.TotalPages(),
		HasPrev:    state.HasPrev(),
		HasNext:    state.HasNext(),
	}
}
