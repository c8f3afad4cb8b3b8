package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PageSize is the fixed number of books requested per results page
const PageSize = 20

// Book represents a single entry of the Open Library search response
type Book struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name,omitempty"`
	AuthorKey        []string `json:"author_key,omitempty"`
	CoverI           *int     `json:"cover_i,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
}

// PrimaryAuthor returns the first listed author name, or "" when none is present
func (b Book) PrimaryAuthor() string {
	if len(b.AuthorName) == 0 {
		return ""
	}
	return b.AuthorName[0]
}

// SearchResponse represents the raw body of /search.json
type SearchResponse struct {
	NumFound int    `json:"numFound"`
	Docs     []Book `json:"docs"`
}

// ResultsPage is one page of search results together with the total hit count
type ResultsPage struct {
	Items      []Book
	TotalFound int
}

// TotalPages returns ceil(TotalFound / PageSize)
func (p ResultsPage) TotalPages() int {
	return TotalPages(p.TotalFound)
}

// TotalPages derives the page count for a total hit count
func TotalPages(totalFound int) int {
	if totalFound <= 0 {
		return 0
	}
	return (totalFound + PageSize - 1) / PageSize
}

// Author represents the canonical Open Library author resource
type Author struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Bio       Text    `json:"bio,omitempty"`
	Photos    []Photo `json:"photos,omitempty"`
	BirthDate string  `json:"birth_date,omitempty"`
	DeathDate string  `json:"death_date,omitempty"`
	Wikipedia string  `json:"wikipedia,omitempty"`
}

// Lifespan formats birth and death dates as "born – died". With only one
// date known it reads "born 1920" or "died 1986", and "" with neither.
func (a Author) Lifespan() string {
	birth := strings.TrimSpace(a.BirthDate)
	death := strings.TrimSpace(a.DeathDate)
	switch {
	case birth != "" && death != "":
		return birth + " – " + death
	case birth != "":
		return "born " + birth
	case death != "":
		return "died " + death
	default:
		return ""
	}
}

// FirstPhotoURL returns the URL of the first usable photo, or ""
func (a Author) FirstPhotoURL(coversBase string) string {
	for _, p := range a.Photos {
		if u := p.URL(coversBase); u != "" {
			return u
		}
	}
	return ""
}

// Text decodes Open Library text fields, which arrive either as a plain
// string or as {"type": "/type/text", "value": "..."}
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*t = Text(v)
	case map[string]any:
		if value, ok := v["value"].(string); ok {
			*t = Text(value)
		}
	}
	return nil
}

// Photo is either a numeric cover-store id or an object carrying a direct url
type Photo struct {
	ID     int    `json:"-"`
	Direct string `json:"url,omitempty"`
}

// UnmarshalJSON leaves p empty for entries of any other shape, so one bad
// photo does not fail the whole author record.
func (p *Photo) UnmarshalJSON(data []byte) error {
	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		p.ID = id
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		p.Direct = obj.URL
	}
	return nil
}

// URL resolves the photo to an image URL; negative ids mark deleted photos
func (p Photo) URL(coversBase string) string {
	if p.Direct != "" {
		return p.Direct
	}
	if p.ID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/a/id/%d-M.jpg", strings.TrimRight(coversBase, "/"), p.ID)
}

// State is a read-only snapshot of one UI session
type State struct {
	Query          string
	CurrentPage    int
	Results        ResultsPage
	OverlayOpen    bool
	SelectedAuthor *Author
}

// HasPrev reports whether the previous-page control should be shown
func (s State) HasPrev() bool {
	return s.Results.TotalPages() > 0 && s.CurrentPage > 1
}

// HasNext reports whether the next-page control should be shown
func (s State) HasNext() bool {
	return s.CurrentPage < s.Results.TotalPages()
}
