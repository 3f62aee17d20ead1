package extract

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	selInfobox  = cascadia.MustCompile("table.infobox")
	selCaption  = cascadia.MustCompile(".infobox-caption, a.image ~ div")
	selWikiLink = cascadia.MustCompile(`a[href^="/wiki/"]`)
	selListItem = cascadia.MustCompile("li")
	selList     = cascadia.MustCompile("ul")
	selTable    = cascadia.MustCompile("table")
	selTableRow = cascadia.MustCompile("tr")

	selCastHeading        = cascadia.MustCompile(`[id="Cast"]`)
	selFilmographyHeading = cascadia.MustCompile(`[id="Filmography"]`)
)

// infobox is the key/value summary table at the top of an article.
type infobox struct {
	caption string
	fields  map[string]*html.Node
}

func (b *infobox) text(key string) (string, bool) {
	n, ok := b.fields[key]
	if !ok {
		return "", false
	}
	return textOf(n), true
}

func parseInfobox(doc *html.Node) *infobox {
	box := &infobox{fields: make(map[string]*html.Node)}
	table := selInfobox.MatchFirst(doc)
	if table == nil {
		return box
	}
	if c := selCaption.MatchFirst(table); c != nil {
		box.caption = textOf(c)
	}
	for _, tr := range selTableRow.MatchAll(table) {
		th := firstChild(tr, atom.Th)
		td := firstChild(tr, atom.Td)
		if th == nil || td == nil {
			continue
		}
		key := textOf(th)
		if key == "" {
			continue
		}
		if _, seen := box.fields[key]; !seen {
			box.fields[key] = td
		}
	}
	return box
}

func firstChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

// textOf returns the whitespace-normalised text content of n.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// wikiLinks returns the article references linked under n, in document order.
// Namespaced pages (File:, Help:, ...) are skipped and fragments stripped.
func wikiLinks(n *html.Node) []string {
	var refs []string
	for _, a := range selWikiLink.MatchAll(n) {
		if ref, ok := articleRef(attr(a, "href")); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func articleRef(href string) (string, bool) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	title := strings.TrimPrefix(href, "/wiki/")
	if title == "" || title == href || strings.Contains(title, ":") {
		return "", false
	}
	return href, true
}

// section returns the sibling anchor of the heading matched by sel: the
// heading itself, or its wrapping div on pages that wrap headings.
func section(doc *html.Node, sel cascadia.Selector) *html.Node {
	n := sel.MatchFirst(doc)
	if n == nil {
		return nil
	}
	for n != nil && !isHeading(n) {
		n = n.Parent
	}
	if n == nil {
		return nil
	}
	if p := n.Parent; p != nil && hasClass(p, "mw-heading") {
		return p
	}
	return n
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

// headingLevel reports the level of a section boundary, 0 if n is not one.
func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	if hasClass(n, "mw-heading") {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isHeading(c) {
				return headingLevel(c)
			}
		}
		return 0
	}
	if isHeading(n) {
		return int(n.Data[1] - '0')
	}
	return 0
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// siblingsUntil walks the element siblings following anchor and stops at the
// next heading of the same or a higher level. fn returning false ends the walk.
func siblingsUntil(anchor *html.Node, fn func(*html.Node) bool) {
	level := headingLevel(anchor)
	for s := anchor.NextSibling; s != nil; s = s.NextSibling {
		if s.Type != html.ElementNode {
			continue
		}
		if l := headingLevel(s); l > 0 && l <= level {
			return
		}
		if !fn(s) {
			return
		}
	}
}
