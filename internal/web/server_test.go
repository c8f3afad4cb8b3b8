package web

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	olhttp "github.com/Paul-Pranta/bookspp/internal/http"
	"github.com/Paul-Pranta/bookspp/internal/render"
	"github.com/Paul-Pranta/bookspp/internal/session"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLibrary struct {
	mu       sync.Mutex
	requests []url.Values
}

func (f *fakeLibrary) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Query())
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/search.json" && r.URL.Query().Get("author") == "Frank Herbert":
		w.Write([]byte(`{"numFound":1,"docs":[{"key":"/works/OL893415W","author_key":["OL79034A"]}]}`))
	case r.URL.Path == "/search.json" && r.URL.Query().Has("author"):
		w.Write([]byte(`{"numFound":0,"docs":[]}`))
	case r.URL.Path == "/search.json":
		page := r.URL.Query().Get("page")
		docs := make([]string, 20)
		for i := range docs {
			cover := fmt.Sprintf(`,"cover_i":%d`, 100+i)
			if i == 0 {
				cover += `,"first_publish_year":1965`
			}
			if i == 19 {
				cover = ""
			}
			docs[i] = fmt.Sprintf(`{"key":"/works/OL%s%dW","title":"Dune p%s #%d","author_name":["Frank Herbert"]%s}`, page, i, page, i, cover)
		}
		fmt.Fprintf(w, `{"numFound":57,"docs":[%s]}`, strings.Join(docs, ","))
	case r.URL.Path == "/authors/OL79034A.json":
		w.Write([]byte(`{"name":"Frank Herbert","bio":"Author of Dune.<script>alert(1)</script>","photos":[6632391],"birth_date":"1920"}`))
	default:
		http.NotFound(w, r)
	}
}

type harness struct {
	library *fakeLibrary
	client  *http.Client
	baseURL string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	library := &fakeLibrary{}
	upstream := httptest.NewServer(library)
	t.Cleanup(upstream.Close)

	client := olhttp.NewClient(olhttp.Options{
		BaseURL:   upstream.URL,
		CoversURL: "https://covers.example",
		Timeout:   2 * time.Second,
	})
	store := session.NewStore(client, time.Hour)
	app := httptest.NewServer(NewServer(store, upstream.URL, client.CoversURL()).Handler())
	t.Cleanup(app.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{
		library: library,
		client:  &http.Client{Jar: jar},
		baseURL: app.URL,
	}
}

func (h *harness) post(t *testing.T, path string, form url.Values) *goquery.Document {
	t.Helper()
	resp, err := h.client.PostForm(h.baseURL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/", resp.Request.URL.Path, "POST should redirect home")

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func (h *harness) get(t *testing.T) *goquery.Document {
	t.Helper()
	resp, err := h.client.Get(h.baseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func TestIndexStartsEmpty(t *testing.T) {
	h := newHarness(t)

	doc := h.get(t)

	assert.Equal(t, 0, doc.Find(".grid-item").Length())
	assert.Equal(t, 0, doc.Find("#next").Length())
	assert.Equal(t, 0, doc.Find("#prev").Length())
	assert.Equal(t, 0, doc.Find(".overlay").Length())

	u, _ := url.Parse(h.baseURL)
	cookies := h.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
}

func TestSearchAndPaginate(t *testing.T) {
	h := newHarness(t)

	doc := h.post(t, "/search", url.Values{"q": {"dune"}})

	assert.Equal(t, 20, doc.Find(".grid-item").Length())
	assert.Equal(t, 1, doc.Find("#next").Length())
	assert.Equal(t, 0, doc.Find("#prev").Length())
	assert.Equal(t, "Page 1 of 3", doc.Find(".page-status").Text())
	val, _ := doc.Find("input[name=q]").Attr("value")
	assert.Equal(t, "dune", val)

	first, _ := doc.Find(".grid-item img").First().Attr("src")
	assert.Equal(t, "https://covers.example/b/id/100-M.jpg", first)
	last, _ := doc.Find(".grid-item img").Last().Attr("src")
	assert.Equal(t, render.PlaceholderCover, last)
	assert.Equal(t, 1, doc.Find(".grid-item .year").Length())
	assert.Equal(t, "First published 1965", doc.Find(".grid-item .year").Text())

	doc = h.post(t, "/next", nil)
	doc = h.post(t, "/next", nil)
	assert.Equal(t, "Page 3 of 3", doc.Find(".page-status").Text())
	assert.Equal(t, 0, doc.Find("#next").Length())
	assert.Equal(t, 1, doc.Find("#prev").Length())

	doc = h.post(t, "/next", nil)
	assert.Equal(t, "Page 3 of 3", doc.Find(".page-status").Text())

	doc = h.post(t, "/search", url.Values{"q": {"dune"}})
	assert.Equal(t, "Page 1 of 3", doc.Find(".page-status").Text())

	h.library.mu.Lock()
	defer h.library.mu.Unlock()
	require.Len(t, h.library.requests, 4)
	assert.Equal(t, "20", h.library.requests[0].Get("limit"))
	assert.Equal(t, "dune", h.library.requests[0].Get("title"))
	assert.Equal(t, "3", h.library.requests[2].Get("page"))
}

func TestAuthorOverlay(t *testing.T) {
	h := newHarness(t)
	doc := h.post(t, "/search", url.Values{"q": {"dune"}})

	name, ok := doc.Find(".grid-item input[name=name]").First().Attr("value")
	require.True(t, ok)
	assert.Equal(t, "Frank Herbert", name)

	doc = h.post(t, "/author", url.Values{"name": {name}})

	overlay := doc.Find(".overlay")
	require.Equal(t, 1, overlay.Length())
	assert.Equal(t, "Frank Herbert", overlay.Find("h2").Text())
	assert.Equal(t, "born 1920", overlay.Find(".lifespan").Text())
	assert.Equal(t, 0, overlay.Find(".bio script").Length())
	assert.Contains(t, overlay.Find(".bio").Text(), "Author of Dune.")
	photo, _ := overlay.Find("img").Attr("src")
	assert.Equal(t, "https://covers.example/a/id/6632391-M.jpg", photo)
	assert.Equal(t, 20, doc.Find(".grid-item").Length(), "results stay behind the overlay")

	doc = h.post(t, "/author/close", nil)
	assert.Equal(t, 0, doc.Find(".overlay").Length())
}

func TestUnknownAuthorKeepsOverlayClosed(t *testing.T) {
	h := newHarness(t)

	doc := h.post(t, "/author", url.Values{"name": {"Nobody Atall"}})

	assert.Equal(t, 0, doc.Find(".overlay").Length())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/search", url.Values{"q": {"dune"}})

	resp, err := h.client.Get(h.baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bookspp_upstream_requests_total")
	assert.Contains(t, string(body), "bookspp_http_requests_total")
}

func TestMetricsLabelRoutesNotPaths(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/search", url.Values{"q": {"dune"}})
	for _, path := range []string{"/wp-login.php", "/random-a1b2c3"} {
		resp, err := h.client.Get(h.baseURL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := h.client.Get(h.baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `route="/search"`)
	assert.Contains(t, text, `route="other",status="404"`)
	assert.NotContains(t, text, "wp-login")
	assert.NotContains(t, text, "random-a1b2c3")
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/{$}", routeLabel("GET /{$}"))
	assert.Equal(t, "/author/close", routeLabel("POST /author/close"))
	assert.Equal(t, "/metrics", routeLabel("/metrics"))
	assert.Equal(t, "other", routeLabel(""))
}

func TestRequestIDHeader(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodGet, h.baseURL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Get(h.baseURL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
