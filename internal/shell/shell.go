package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	biohtml "github.com/Paul-Pranta/bookspp/internal/html"
	"github.com/Paul-Pranta/bookspp/internal/models"
	"github.com/Paul-Pranta/bookspp/internal/render"
	"github.com/Paul-Pranta/bookspp/internal/session"
	"github.com/peterh/liner"
	"github.com/samber/lo"
)

const prompt = "bookspp> "

var commands = []string{"search", "next", "prev", "page", "author", "close", "help", "quit"}

const helpText = `Commands:
  search <query>    search books (resets to page 1)
  next, prev        move between result pages
  page              show the current page again
  author <n|name>   show the author of result n, or look up a name
  close             close the author details
  help              show this help
  quit              leave the shell
`

// Shell is an interactive terminal front end over one session
type Shell struct {
	sess      *session.Session
	bio       *biohtml.Bio
	coversURL string
	out       io.Writer
}

// New creates a shell writing to out
func New(sess *session.Session, bio *biohtml.Bio, coversURL string, out io.Writer) *Shell {
	return &Shell{
		sess:      sess,
		bio:       bio,
		coversURL: coversURL,
		out:       out,
	}
}

// Run reads commands until quit, EOF or Ctrl-C. History is kept in
// historyPath when it is not empty.
func (sh *Shell) Run(ctx context.Context, historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		return lo.Filter(commands, func(cmd string, _ int) bool {
			return strings.HasPrefix(cmd, strings.ToLower(input))
		})
	})

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprint(sh.out, "Book Search shell. Type \"help\" for commands.\n")
	for {
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if sh.Execute(ctx, input) {
			break
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// Execute runs one command line and reports whether the shell should exit
func (sh *Shell) Execute(ctx context.Context, input string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "search", "s", "go":
		sh.sess.SetQuery(arg)
		sh.sess.Search(ctx)
		sh.printResults()
	case "next", "n":
		if !sh.sess.Next(ctx) {
			fmt.Fprintln(sh.out, "[-] No next page")
			return false
		}
		sh.printResults()
	case "prev", "p":
		if !sh.sess.Prev(ctx) {
			fmt.Fprintln(sh.out, "[-] No previous page")
			return false
		}
		sh.printResults()
	case "page":
		sh.printResults()
	case "author", "a":
		sh.openAuthor(ctx, arg)
	case "close":
		sh.sess.CloseOverlay()
	case "help", "?":
		fmt.Fprint(sh.out, helpText)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(sh.out, "[-] Unknown command %q, type \"help\"\n", cmd)
	}
	return false
}

// openAuthor accepts either a result number from the current page or an
// author name typed verbatim
func (sh *Shell) openAuthor(ctx context.Context, arg string) {
	name := arg
	if n, err := strconv.Atoi(arg); err == nil {
		items := sh.sess.Snapshot().Results.Items
		if n < 1 || n > len(items) {
			fmt.Fprintf(sh.out, "[-] No result %d on this page\n", n)
			return
		}
		name = items[n-1].PrimaryAuthor()
		if name == "" {
			fmt.Fprintf(sh.out, "[-] Result %d has no author\n", n)
			return
		}
	}

	if !sh.sess.OpenAuthor(ctx, name) {
		fmt.Fprintf(sh.out, "[-] No author details for %q\n", name)
		return
	}
	sh.printAuthor(sh.sess.Snapshot())
}

func (sh *Shell) printResults() {
	state := sh.sess.Snapshot()
	tiles := render.Tiles(state.Results.Items, sh.coversURL)
	if len(tiles) == 0 {
		fmt.Fprintln(sh.out, "No results.")
		return
	}
	PrintTiles(sh.out, tiles, 0)

	pager := render.PagerFor(state)
	fmt.Fprintf(sh.out, "[*] Page %d of %d (%d found)", pager.Page, pager.TotalPages, state.Results.TotalFound)
	if pager.HasPrev {
		fmt.Fprint(sh.out, "  [prev]")
	}
	if pager.HasNext {
		fmt.Fprint(sh.out, "  [next]")
	}
	fmt.Fprintln(sh.out)
}

func (sh *Shell) printAuthor(state models.State) {
	if !state.OverlayOpen || state.SelectedAuthor == nil {
		return
	}
	PrintAuthor(sh.out, *state.SelectedAuthor, sh.bio, sh.coversURL)
	fmt.Fprintln(sh.out, "(type \"close\" to dismiss)")
}

// PrintTiles writes tiles as an aligned table numbered from offset+1
func PrintTiles(out io.Writer, tiles []render.Tile, offset int) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTitle\tAuthor\tYear\tCover")
	for i, tile := range tiles {
		year := ""
		if tile.Year > 0 {
			year = strconv.Itoa(tile.Year)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", offset+i+1, tile.Title, tile.Author, year, tile.CoverURL)
	}
	tw.Flush()
}

// PrintAuthor writes an author's details with the bio reduced to plain text
func PrintAuthor(out io.Writer, author models.Author, bio *biohtml.Bio, coversURL string) {
	fmt.Fprintf(out, "\n== %s ==\n", author.Name)
	if span := author.Lifespan(); span != "" {
		fmt.Fprintln(out, span)
	}
	if photo := author.FirstPhotoURL(coversURL); photo != "" {
		fmt.Fprintf(out, "Photo: %s\n", photo)
	}
	if text := bio.PlainText(string(author.Bio)); text != "" {
		fmt.Fprintf(out, "\n%s\n", text)
	}
	if author.Wikipedia != "" {
		fmt.Fprintf(out, "\nWikipedia: %s\n", author.Wikipedia)
	}
	fmt.Fprintln(out)
}
