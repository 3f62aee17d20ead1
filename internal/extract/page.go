package extract

import (
	"net/url"
	"strings"
)

// PageType is the classification of a fetched page.
type PageType int

const (
	PageOther PageType = iota
	PageMovie
	PageActor
)

func (t PageType) String() string {
	switch t {
	case PageMovie:
		return "movie"
	case PageActor:
		return "actor"
	default:
		return "other"
	}
}

// Page is the extraction result for one reference.
// Exactly one of Movie and Actor is set when Type is PageMovie or PageActor.
type Page struct {
	Ref   string
	Type  PageType
	Movie *MovieRecord
	Actor *ActorRecord
}

// MovieRecord holds the facts read from a film page.
// Starring and Cast keep page order and may overlap.
type MovieRecord struct {
	Name          string
	Year          int
	TotalGrossing float64 // US dollars
	Starring      []string
	Cast          []string
}

// ActorRecord holds the facts read from a performer page.
type ActorRecord struct {
	Name   string
	Age    int
	Movies []string
}

// NameFromRef derives a display name from a page reference:
// "/wiki/Kate_Winslet" becomes "Kate Winslet".
func NameFromRef(ref string) string {
	name := ref
	if unescaped, err := url.PathUnescape(ref); err == nil {
		name = unescaped
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}
