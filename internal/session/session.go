package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	olhttp "github.com/Paul-Pranta/bookspp/internal/http"
	"github.com/Paul-Pranta/bookspp/internal/logger"
	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/sirupsen/logrus"
)

var errPageOutOfRange = errors.New("page out of range")

// Backend is the subset of the Open Library client a session needs
type Backend interface {
	SearchBooks(ctx context.Context, query string, page int) (models.ResultsPage, error)
	ResolveAuthor(ctx context.Context, name string) (string, error)
	GetAuthor(ctx context.Context, key string) (models.Author, error)
}

// Session owns the state of one search page. All mutation goes through its
// transition methods; remote calls are made without holding the lock.
//
// Each results fetch takes a new generation and cancels the previous one, so
// a superseded response is dropped even if it resolves last.
type Session struct {
	backend Backend

	mu          sync.Mutex
	query       string
	searched    string
	page        int
	results     models.ResultsPage
	overlayOpen bool
	selected    *models.Author

	fetchGen    uint64
	fetchCancel context.CancelFunc
	authorGen   uint64
}

// New creates an empty session on page 1
func New(backend Backend) *Session {
	return &Session{
		backend: backend,
		page:    1,
	}
}

// SetQuery replaces the query text without fetching
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// Search is the "Go" action: it resets to page 1 and fetches the current
// query. A blank query clears the results without calling the API.
func (s *Session) Search(ctx context.Context) bool {
	s.mu.Lock()
	s.page = 1
	query := s.query
	if strings.TrimSpace(query) == "" {
		s.invalidateFetchLocked()
		s.searched = ""
		s.results = models.ResultsPage{}
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	return s.fetch(ctx, query, 1)
}

// GoToPage fetches page n of the last searched query. Pages outside
// [1, TotalPages] are rejected without a request.
func (s *Session) GoToPage(ctx context.Context, n int) bool {
	s.mu.Lock()
	query := s.searched
	total := s.results.TotalPages()
	s.mu.Unlock()

	if n < 1 || n > max(total, 1) || strings.TrimSpace(query) == "" {
		return false
	}
	return s.fetch(ctx, query, n)
}

// Next advances one page; it is a no-op on the last page
func (s *Session) Next(ctx context.Context) bool {
	s.mu.Lock()
	page, total := s.page, s.results.TotalPages()
	s.mu.Unlock()

	if page >= total {
		return false
	}
	return s.GoToPage(ctx, page+1)
}

// Prev goes back one page; it is a no-op on page 1
func (s *Session) Prev(ctx context.Context) bool {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	if page <= 1 {
		return false
	}
	return s.GoToPage(ctx, page-1)
}

// fetch loads one page and applies it if no newer fetch has started. When the
// hit count shrank below the requested page, the last page is loaded instead.
func (s *Session) fetch(ctx context.Context, query string, page int) bool {
	s.mu.Lock()
	gen, fetchCtx := s.beginFetchLocked(ctx)
	s.mu.Unlock()

	log := logger.For(ctx).WithFields(logrus.Fields{"op": "search", "query": query})

	result, err := s.search(ctx, fetchCtx, query, page)
	if last := result.TotalPages(); err == nil && page > max(last, 1) {
		log.WithFields(logrus.Fields{"page": page, "total_pages": last}).Warn("page past the end of results")
		page = max(last, 1)
		if last > 0 {
			result, err = s.search(ctx, fetchCtx, query, page)
			if err == nil && page > result.TotalPages() {
				err = errPageOutOfRange
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log = log.WithField("page", page)
	if gen != s.fetchGen {
		log.Debug("dropping superseded search response")
		return false
	}
	s.endFetchLocked()

	if err != nil {
		log.WithError(err).Error("error fetching books")
		return false
	}

	s.results = result
	s.searched = query
	s.page = page
	log.WithField("total_found", result.TotalFound).Debug("search results applied")
	return true
}

func (s *Session) search(ctx, fetchCtx context.Context, query string, page int) (models.ResultsPage, error) {
	done := logger.Track(ctx, "search")
	defer done()
	return s.backend.SearchBooks(fetchCtx, query, page)
}

func (s *Session) invalidateFetchLocked() {
	s.endFetchLocked()
	s.fetchGen++
}

func (s *Session) beginFetchLocked(ctx context.Context) (uint64, context.Context) {
	s.invalidateFetchLocked()
	fetchCtx, cancel := context.WithCancel(ctx)
	s.fetchCancel = cancel
	return s.fetchGen, fetchCtx
}

func (s *Session) endFetchLocked() {
	if s.fetchCancel != nil {
		s.fetchCancel()
		s.fetchCancel = nil
	}
}

// OpenAuthor resolves displayName to an author and opens the overlay with
// the author's record. Any failure is logged and leaves the overlay closed.
func (s *Session) OpenAuthor(ctx context.Context, displayName string) bool {
	s.mu.Lock()
	s.authorGen++
	gen := s.authorGen
	s.mu.Unlock()

	log := logger.For(ctx).WithFields(logrus.Fields{"op": "author", "author": displayName})

	key, err := s.backend.ResolveAuthor(ctx, displayName)
	if err != nil {
		if errors.Is(err, olhttp.ErrAuthorNotFound) {
			log.Info("no author matched")
		} else {
			log.WithError(err).Error("error resolving author")
		}
		return false
	}

	author, err := s.backend.GetAuthor(ctx, key)
	if err != nil {
		log.WithError(err).WithField("author_key", key).Error("error fetching author details")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.authorGen {
		log.Debug("dropping superseded author lookup")
		return false
	}
	s.selected = &author
	s.overlayOpen = true
	return true
}

// CloseOverlay closes the overlay and forgets the selected author. Lookups
// still in flight are discarded.
func (s *Session) CloseOverlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorGen++
	s.overlayOpen = false
	s.selected = nil
}

// Snapshot returns a copy of the current state for rendering
func (s *Session) Snapshot() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.State{
		Query:       s.query,
		CurrentPage: s.page,
		Results:     s.results,
		OverlayOpen: s.overlayOpen,
	}
	if s.selected != nil {
		author := *s.selected
		state.SelectedAuthor = &author
	}
	return state
}
