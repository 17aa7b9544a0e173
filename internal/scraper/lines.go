package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextLines flattens a document into its visible text, one trimmed line per
// text node line, in document order. Script, style and template content is
// skipped.
func TextLines(doc *goquery.Document) []string {
	lines := make([]string, 0, 256)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				return
			}
		case html.TextNode:
			for _, raw := range strings.Split(n.Data, "\n") {
				if line := strings.Join(strings.Fields(raw), " "); line != "" {
					lines = append(lines, line)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}
	return lines
}
