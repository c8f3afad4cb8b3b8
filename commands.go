package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/Paul-Pranta/bookspp/internal/config"
	biohtml "github.com/Paul-Pranta/bookspp/internal/html"
	olhttp "github.com/Paul-Pranta/bookspp/internal/http"
	"github.com/Paul-Pranta/bookspp/internal/logger"
	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/Paul-Pranta/bookspp/internal/render"
	"github.com/Paul-Pranta/bookspp/internal/session"
	"github.com/Paul-Pranta/bookspp/internal/shell"
	"github.com/Paul-Pranta/bookspp/internal/web"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"
)

const (
	sessionIdle   = 30 * time.Minute
	sweepInterval = 5 * time.Minute
	maxPageFetch  = 4
)

var cfg config.Config

func loadConfig(ctx *cli.Context) error {
	loaded, err := config.Load(ctx.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if ctx.IsSet("base-url") {
		loaded.BaseURL = ctx.String("base-url")
	}
	if ctx.IsSet("covers-url") {
		loaded.CoversURL = ctx.String("covers-url")
	}
	if ctx.IsSet("timeout") {
		loaded.Timeout = ctx.Duration("timeout")
	}
	if ctx.IsSet("log-level") {
		loaded.LogLevel = ctx.String("log-level")
	}

	if err := loaded.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}
	if err := logger.Setup(loaded.LogLevel, os.Stderr); err != nil {
		return cli.Exit(fmt.Sprintf("invalid log level: %v", err), 1)
	}

	cfg = loaded
	return nil
}

func newClient() *olhttp.Client {
	return olhttp.NewClient(olhttp.Options{
		BaseURL:   cfg.BaseURL,
		CoversURL: cfg.CoversURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
}

func runServeAction(ctx *cli.Context) error {
	listen := cfg.Listen
	if ctx.IsSet("listen") {
		listen = ctx.String("listen")
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(newClient(), sessionIdle)
	srv := web.NewServer(store, cfg.BaseURL, cfg.CoversURL)
	go srv.Sweep(sigCtx, sweepInterval)

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", listen).Info("web UI listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return cli.Exit(fmt.Sprintf("server failed: %v", err), 1)
		}
		return nil
	case <-sigCtx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return cli.Exit(fmt.Sprintf("shutdown failed: %v", err), 1)
	}
	return nil
}

func runShellAction(ctx *cli.Context) error {
	sess := session.New(newClient())
	sh := shell.New(sess, biohtml.NewBio(cfg.BaseURL), cfg.CoversURL, os.Stdout)
	if err := sh.Run(ctx.Context, ctx.String("history")); err != nil {
		return cli.Exit(fmt.Sprintf("shell failed: %v", err), 1)
	}
	return nil
}

func runSearchAction(ctx *cli.Context) error {
	query := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
	if query == "" {
		return cli.Exit("search query is required", 1)
	}

	first := ctx.Int("page")
	count := ctx.Int("pages")
	if first < 1 || count < 1 {
		return cli.Exit("page and pages must be at least 1", 1)
	}

	fmt.Printf("[*] Searching %q, pages %d-%d...\n", query, first, first+count-1)
	pages, err := searchPages(ctx.Context, newClient(), query, first, count)
	if err != nil {
		return cli.Exit(fmt.Sprintf("search failed: %v", err), 1)
	}

	if len(pages) == 0 {
		fmt.Println("[-] No results")
		return nil
	}
	for _, p := range pages {
		fmt.Printf("\n[*] Page %d of %d (%d found)\n", p.page, p.results.TotalPages(), p.results.TotalFound)
		shell.PrintTiles(os.Stdout, render.Tiles(p.results.Items, cfg.CoversURL), (p.page-1)*models.PageSize)
	}
	return nil
}

type numberedPage struct {
	page    int
	results models.ResultsPage
}

// searchPages fetches count consecutive pages starting at first, with a
// bounded number of requests in flight. Empty pages are dropped and the rest
// are returned in page order.
func searchPages(ctx context.Context, client *olhttp.Client, query string, first, count int) ([]numberedPage, error) {
	p := pool.NewWithResults[numberedPage]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(maxPageFetch)

	for page := first; page < first+count; page++ {
		p.Go(func(ctx context.Context) (numberedPage, error) {
			results, err := client.SearchBooks(ctx, query, page)
			if err != nil {
				return numberedPage{}, err
			}
			return numberedPage{page: page, results: results}, nil
		})
	}

	pages, err := p.Wait()
	if err != nil {
		return nil, err
	}

	pages = lo.Filter(pages, func(p numberedPage, _ int) bool {
		return len(p.results.Items) > 0
	})
	slices.SortFunc(pages, func(a, b numberedPage) int {
		return a.page - b.page
	})
	return pages, nil
}

func runAuthorAction(ctx *cli.Context) error {
	name := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
	if name == "" {
		return cli.Exit("author name is required", 1)
	}

	client := newClient()
	fmt.Printf("[*] Resolving author %q...\n", name)
	key, err := client.ResolveAuthor(ctx.Context, name)
	if errors.Is(err, olhttp.ErrAuthorNotFound) {
		return cli.Exit(fmt.Sprintf("no author matched %q", name), 1)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("author lookup failed: %v", err), 1)
	}

	fmt.Printf("[*] Retrieving author %s...\n", key)
	author, err := client.GetAuthor(ctx.Context, key)
	if err != nil {
		return cli.Exit(fmt.Sprintf("author lookup failed: %v", err), 1)
	}

	shell.PrintAuthor(os.Stdout, author, biohtml.NewBio(cfg.BaseURL), cfg.CoversURL)
	return nil
}
