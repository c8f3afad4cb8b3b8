package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	olhttp "github.com/Paul-Pranta/bookspp/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchClient(t *testing.T, total int, failPage int) *olhttp.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == failPage {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		remaining := total - (page-1)*20
		n := min(max(remaining, 0), 20)
		docs := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				docs += ","
			}
			docs += fmt.Sprintf(`{"key":"/works/OL%d_%dW","title":"t%d"}`, page, i, i)
		}
		fmt.Fprintf(w, `{"numFound":%d,"docs":[%s]}`, total, docs)
	}))
	t.Cleanup(server.Close)
	return olhttp.NewClient(olhttp.Options{BaseURL: server.URL, Timeout: 2 * time.Second})
}

func TestSearchPagesInOrder(t *testing.T) {
	client := newSearchClient(t, 57, 0)

	pages, err := searchPages(context.Background(), client, "dune", 1, 5)
	require.NoError(t, err)

	require.Len(t, pages, 3, "pages past the last one are dropped")
	for i, p := range pages {
		assert.Equal(t, i+1, p.page)
		assert.Equal(t, 3, p.results.TotalPages())
	}
	assert.Len(t, pages[2].results.Items, 17)
}

func TestSearchPagesFailure(t *testing.T) {
	client := newSearchClient(t, 57, 2)

	_, err := searchPages(context.Background(), client, "dune", 1, 3)
	assert.Error(t, err)
}
