package html

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/Paul-Pranta/bookspp/pkg/utils"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	paragraphGap = regexp.MustCompile(`\n\s*\n`)
	spaceRun     = regexp.MustCompile(`[ \t]+`)
)

// Bio renders Open Library author bios, which are free text that may embed
// HTML fragments and markdown-style [label](url) links.
type Bio struct {
	baseURL string
	policy  *bluemonday.Policy
}

// NewBio creates a bio renderer resolving relative links against baseURL
func NewBio(baseURL string) *Bio {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Bio{
		baseURL: baseURL,
		policy:  policy,
	}
}

// HTML returns a sanitized HTML rendition of text, split into paragraphs
func (b *Bio) HTML(text string) string {
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var out strings.Builder
	for _, para := range paragraphGap.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		para = markdownLink.ReplaceAllStringFunc(para, func(m string) string {
			parts := markdownLink.FindStringSubmatch(m)
			return `<a href="` + html.EscapeString(parts[2]) + `">` + parts[1] + `</a>`
		})
		out.WriteString("<p>")
		out.WriteString(strings.ReplaceAll(para, "\n", "<br>"))
		out.WriteString("</p>")
	}

	root, err := parseFragment(out.String())
	if err != nil {
		return b.policy.Sanitize(out.String())
	}
	rewriteLinks(root, func(link string) string {
		return utils.ResolveURL(b.baseURL, link)
	})

	rendered, err := childrenToString(root)
	if err != nil {
		return b.policy.Sanitize(out.String())
	}
	return b.policy.Sanitize(rendered)
}

// PlainText strips markup from text for terminal output, keeping paragraph
// breaks and turning markdown links into "label (url)".
func (b *Bio) PlainText(text string) string {
	text = normalizeNewlines(text)
	text = markdownLink.ReplaceAllString(text, "$1 ($2)")

	root, err := parseFragment(text)
	if err != nil {
		return strings.TrimSpace(text)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style").Remove()
	doc.Find("br").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithNodes(textNode("\n"))
	})
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendNodes(textNode("\n\n"))
	})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if label := strings.TrimSpace(sel.Text()); label != "" && href != "" && label != href {
			sel.SetText(label + " (" + utils.ResolveURL(b.baseURL, href) + ")")
		}
	})

	return tidyText(doc.Text())
}

func textNode(data string) *nethtml.Node {
	return &nethtml.Node{Type: nethtml.TextNode, Data: data}
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}

func tidyText(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line == "" {
			if len(out) > 0 {
				blank = true
			}
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// parseFragment parses text as body content under a detached <div> root
func parseFragment(text string) (*nethtml.Node, error) {
	root := &nethtml.Node{Type: nethtml.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := nethtml.ParseFragment(strings.NewReader(text), root)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// rewriteLinks rewrites all links in a node
func rewriteLinks(node *nethtml.Node, repl func(string) string) {
	if node.Type == nethtml.ElementNode {
		for i := range node.Attr {
			attr := &node.Attr[i]
			switch attr.Key {
			case "href", "src":
				attr.Val = repl(attr.Val)
			}
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		rewriteLinks(child, repl)
	}
}

// childrenToString renders the children of a node
func childrenToString(n *nethtml.Node) (string, error) {
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := nethtml.Render(&buf, child); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
