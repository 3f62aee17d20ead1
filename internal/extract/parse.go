package extract

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	occupationPattern = regexp.MustCompile(`(?i)actor|actress`)
	yearPattern       = regexp.MustCompile(`\b([0-9]{4})\b`)
	agePattern        = regexp.MustCompile(`\(aged?\s+([0-9]+)\)`)
	// "$2.264 billion", "$100 million"
	grossUnitPattern = regexp.MustCompile(`(\$)\s?([1-9][0-9]*(?:\.[0-9]+)?)\s+(million|billion)`)
	// "$1,234,567"
	grossPlainPattern = regexp.MustCompile(`(\$)([1-9][0-9]{0,2}(?:,[0-9]{3})*)(?:[^0-9,]|$)`)
)

var currencyConversion = map[string]float64{"$": 1}

var unitConversion = map[string]float64{"million": 1e6, "billion": 1e9}

// Parse reads an HTML article and extracts its typed record.
// Pages that are neither films nor actors come back as PageOther.
func Parse(ref string, r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ref, err)
	}
	box := parseInfobox(doc)
	page := &Page{Ref: ref, Type: classify(box)}
	switch page.Type {
	case PageMovie:
		page.Movie = parseMovie(ref, doc, box)
	case PageActor:
		page.Actor = parseActor(ref, doc, box)
	}
	return page, nil
}

func classify(box *infobox) PageType {
	if strings.Contains(strings.ToLower(box.caption), "theatrical release poster") {
		return PageMovie
	}
	if _, directed := box.fields["Directed by"]; directed {
		if _, ok := box.fields["Box office"]; ok {
			return PageMovie
		}
		if _, ok := releaseDate(box); ok {
			return PageMovie
		}
	}
	for _, key := range []string{"Occupation", "Occupations", "Occupation(s)"} {
		if text, ok := box.text(key); ok && occupationPattern.MatchString(text) {
			return PageActor
		}
	}
	return PageOther
}

func releaseDate(box *infobox) (string, bool) {
	if text, ok := box.text("Release date"); ok {
		return text, true
	}
	return box.text("Release dates")
}

func parseMovie(ref string, doc *html.Node, box *infobox) *MovieRecord {
	m := &MovieRecord{Name: NameFromRef(ref)}

	if text, ok := releaseDate(box); ok {
		if match := yearPattern.FindStringSubmatch(text); match != nil {
			m.Year, _ = strconv.Atoi(match[1])
		} else {
			slog.Warn("year not found", "ref", ref)
		}
	} else {
		slog.Warn("release date not found", "ref", ref)
	}

	if text, ok := box.text("Box office"); ok {
		if gross, ok := parseGrossing(text); ok {
			m.TotalGrossing = gross
		} else {
			slog.Warn("box office format not recognized", "ref", ref, "text", text)
		}
	} else {
		slog.Warn("box office not found", "ref", ref)
	}

	if td, ok := box.fields["Starring"]; ok {
		m.Starring = wikiLinks(td)
	} else {
		slog.Warn("starring not found", "ref", ref)
	}
	m.Cast = parseCast(ref, doc)
	return m
}

// parseGrossing converts a box office string to US dollars.
func parseGrossing(text string) (float64, bool) {
	if match := grossUnitPattern.FindStringSubmatch(text); match != nil {
		v, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			return 0, false
		}
		return v * currencyConversion[match[1]] * unitConversion[match[3]], true
	}
	if match := grossPlainPattern.FindStringSubmatch(text); match != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(match[2], ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return v * currencyConversion[match[1]], true
	}
	return 0, false
}

// parseCast returns the first article link of every item in the list that
// follows the "Cast" heading.
func parseCast(ref string, doc *html.Node) []string {
	anchor := section(doc, selCastHeading)
	if anchor == nil {
		slog.Warn("cast section not found", "ref", ref)
		return nil
	}
	var list *html.Node
	siblingsUntil(anchor, func(n *html.Node) bool {
		if n.DataAtom == atom.Ul {
			list = n
		} else {
			list = selList.MatchFirst(n)
		}
		return list == nil
	})
	if list == nil {
		slog.Warn("no cast list", "ref", ref)
		return nil
	}
	var refs []string
	for _, li := range selListItem.MatchAll(list) {
		if links := wikiLinks(li); len(links) > 0 {
			refs = append(refs, links[0])
		}
	}
	return refs
}

func parseActor(ref string, doc *html.Node, box *infobox) *ActorRecord {
	a := &ActorRecord{Name: NameFromRef(ref)}
	a.Age = parseAge(box)
	if a.Age == 0 {
		slog.Warn("age not found", "ref", ref)
	}
	a.Movies = parseFilmography(ref, doc)
	return a
}

func parseAge(box *infobox) int {
	for _, key := range []string{"Born", "Died"} {
		text, ok := box.text(key)
		if !ok {
			continue
		}
		if match := agePattern.FindStringSubmatch(text); match != nil {
			if age, err := strconv.Atoi(match[1]); err == nil {
				return age
			}
		}
	}
	return 0
}

// parseFilmography reads the first table of the "Filmography" section and
// takes, per row, the first cell holding exactly one article link.
func parseFilmography(ref string, doc *html.Node) []string {
	anchor := section(doc, selFilmographyHeading)
	if anchor == nil {
		slog.Warn("filmography section not found", "ref", ref)
		return nil
	}
	var table *html.Node
	siblingsUntil(anchor, func(n *html.Node) bool {
		if n.DataAtom == atom.Table {
			table = n
		} else {
			table = selTable.MatchFirst(n)
		}
		return table == nil
	})
	if table == nil {
		return nil
	}
	var refs []string
	for _, tr := range selTableRow.MatchAll(table) {
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			if links := wikiLinks(c); len(links) == 1 {
				refs = append(refs, links[0])
				break
			}
		}
	}
	return refs
}
