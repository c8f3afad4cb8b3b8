package http

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Paul-Pranta/bookspp/internal/metrics"
	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/Paul-Pranta/bookspp/pkg/utils"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
)

const (
	searchPath  = "/search.json"
	authorsPath = "/authors"

	endpointSearch       = "search"
	endpointAuthorSearch = "author_search"
	endpointAuthor       = "author"
)

// Options configures a Client
type Options struct {
	BaseURL   string
	CoversURL string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the Open Library read-only API
type Client struct {
	client    *resty.Client
	coversURL string
}

// NewClient creates a new Open Library client
func NewClient(opts Options) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	client.SetHeaders(map[string]string{
		"Accept":     "application/json",
		"User-Agent": opts.UserAgent,
	})

	return &Client{
		client:    client,
		coversURL: opts.CoversURL,
	}
}

// CoversURL returns the base URL of the cover image store
func (c *Client) CoversURL() string {
	return c.coversURL
}

// SearchBooks fetches one page of books matching query, used both as the
// free-text query and as the title filter.
func (c *Client) SearchBooks(ctx context.Context, query string, page int) (models.ResultsPage, error) {
	params := map[string]string{
		"q":     query,
		"title": query,
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(models.PageSize),
	}

	var payload models.SearchResponse
	if err := c.getJSON(ctx, endpointSearch, searchPath, params, &payload); err != nil {
		return models.ResultsPage{}, err
	}

	return models.ResultsPage{
		Items:      lo.Slice(payload.Docs, 0, models.PageSize),
		TotalFound: payload.NumFound,
	}, nil
}

// ResolveAuthor maps an author display name to the key of the first matching author
func (c *Client) ResolveAuthor(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrAuthorNotFound
	}

	var payload models.SearchResponse
	if err := c.getJSON(ctx, endpointAuthorSearch, searchPath, map[string]string{"author": name}, &payload); err != nil {
		return "", err
	}

	first, ok := lo.First(payload.Docs)
	if !ok {
		return "", ErrAuthorNotFound
	}
	key := lo.FirstOrEmpty(first.AuthorKey)
	if key == "" {
		return "", ErrAuthorNotFound
	}
	return key, nil
}

// GetAuthor fetches the canonical author resource for key
func (c *Client) GetAuthor(ctx context.Context, key string) (models.Author, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/authors/")
	if key == "" {
		return models.Author{}, ErrAuthorNotFound
	}

	var author models.Author
	path := utils.JoinURL(authorsPath, url.PathEscape(key)+".json")
	if err := c.getJSON(ctx, endpointAuthor, path, nil, &author); err != nil {
		return models.Author{}, err
	}
	return author, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params map[string]string, target any) error {
	start := time.Now()
	err := c.doGetJSON(ctx, endpoint, path, params, target)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	return err
}

func (c *Client) doGetJSON(ctx context.Context, endpoint, path string, params map[string]string, target any) error {
	req := c.client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return &NetworkError{Op: endpoint, URL: path, Err: err}
	}

	if err := utils.HandleJSONResponse(resp, target, endpoint); err != nil {
		if errors.Is(err, utils.ErrUnexpectedStatus) {
			return &NetworkError{Op: endpoint, URL: resp.Request.URL, StatusCode: resp.StatusCode(), Err: err}
		}
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = err
		}
		return &ParseError{Op: endpoint, Err: cause}
	}
	return nil
}

func outcome(err error) string {
	var netErr *NetworkError
	var parseErr *ParseError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}
