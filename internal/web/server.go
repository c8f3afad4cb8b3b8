package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	biohtml "github.com/Paul-Pranta/bookspp/internal/html"
	"github.com/Paul-Pranta/bookspp/internal/logger"
	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/Paul-Pranta/bookspp/internal/render"
	"github.com/Paul-Pranta/bookspp/internal/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCookie names the cookie binding a browser to its session
const SessionCookie = "bookspp_session"

//go:embed templates/page.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// Server serves the search page over one in-memory session per visitor
type Server struct {
	store     *session.Store
	coversURL string
	bio       *biohtml.Bio
}

type pageView struct {
	Query   string
	Tiles   []render.Tile
	Pager   render.Pager
	Overlay *overlayView
}

type overlayView struct {
	Name      string
	Lifespan  string
	PhotoURL  string
	Wikipedia string
	Bio       template.HTML
}

// NewServer creates a web server. baseURL resolves relative links inside
// author bios; coversURL is the cover image store.
func NewServer(store *session.Store, baseURL, coversURL string) *Server {
	return &Server{
		store:     store,
		coversURL: coversURL,
		bio:       biohtml.NewBio(baseURL),
	}
}

// Handler returns the routed handler wrapped in the logging and metrics middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /next", s.handleNext)
	mux.HandleFunc("POST /prev", s.handlePrev)
	mux.HandleFunc("POST /author", s.handleAuthor)
	mux.HandleFunc("POST /author/close", s.handleCloseAuthor)
	mux.Handle("GET /metrics", promhttp.Handler())

	return RequestID(RequestLogger(Metrics(mux)))
}

// Sweep periodically drops idle sessions until ctx is done
func (s *Server) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Sweep(); n > 0 {
				logger.For(ctx).WithField("removed", n).Debug("expired idle sessions")
			}
		}
	}
}

// handleIndex renders the current session.
//
// Method: GET
// Path:   /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	view := s.view(sess.Snapshot())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		logger.For(r.Context()).WithError(err).Error("failed to render page")
	}
}

// handleSearch is the "Go" action.
//
// Method: POST
// Path:   /search (form field q)
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.SetQuery(r.FormValue("q"))
	sess.Search(r.Context())
	redirectHome(w, r)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Next(r.Context())
	redirectHome(w, r)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Prev(r.Context())
	redirectHome(w, r)
}

// handleAuthor looks up the clicked author and opens the overlay.
//
// Method: POST
// Path:   /author (form field name, the author name exactly as displayed)
func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).OpenAuthor(r.Context(), r.FormValue("name"))
	redirectHome(w, r)
}

func (s *Server) handleCloseAuthor(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).CloseOverlay()
	redirectHome(w, r)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}

	sess, newID := s.store.Get(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) view(state models.State) pageView {
	view := pageView{
		Query: state.Query,
		Tiles: render.Tiles(state.Results.Items, s.coversURL),
		Pager: render.PagerFor(state),
	}

	if state.OverlayOpen && state.SelectedAuthor != nil {
		author := state.SelectedAuthor
		view.Overlay = &overlayView{
			Name:      author.Name,
			Lifespan:  author.Lifespan(),
			PhotoURL:  author.FirstPhotoURL(s.coversURL),
			Wikipedia: author.Wikipedia,
			Bio:       template.HTML(s.bio.HTML(string(author.Bio))),
		}
	}
	return view
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
