package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gyaneshwarpardhi/moviegraph/internal/extract"
)

const moviePage = `<html><body>
<table class="infobox vevent"><tbody>
<tr><td><a class="image" href="/wiki/File:Poster.jpg"><img src="p.jpg"></a><div>Theatrical release poster</div></td></tr>
<tr><th>Directed by</th><td><a href="/wiki/James_Cameron">James Cameron</a></td></tr>
<tr><th>Starring</th><td><ul>
  <li><a href="/wiki/Leonardo_DiCaprio">Leonardo DiCaprio</a></li>
  <li><a href="/wiki/Kate_Winslet#Career">Kate Winslet</a></li>
  <li><a href="/wiki/Help:Footnotes">[1]</a></li>
</ul></td></tr>
<tr><th>Release date</th><td>December&nbsp;19, 1997</td></tr>
<tr><th>Box office</th><td>$2.264&nbsp;billion<sup>[3]</sup></td></tr>
</tbody></table>
<div class="mw-heading mw-heading2"><h2 id="Plot">Plot</h2></div>
<p>A ship sinks.</p>
<div class="mw-heading mw-heading2"><h2 id="Cast">Cast</h2></div>
<div class="div-col"><ul>
  <li><a href="/wiki/Kate_Winslet">Kate Winslet</a> as Rose</li>
  <li><a href="/wiki/Billy_Zane">Billy Zane</a> as Cal</li>
  <li>An uncredited extra</li>
</ul></div>
<div class="mw-heading mw-heading2"><h2 id="Production">Production</h2></div>
<ul><li><a href="/wiki/Not_Cast">Not cast</a></li></ul>
</body></html>`

const actorPage = `<html><body>
<table class="infobox biography vcard"><tbody>
<tr><th>Born</th><td>Kate Elizabeth Winslet<br>5 October 1975 (age&nbsp;49)<br>Reading, England</td></tr>
<tr><th>Occupation</th><td>Actress</td></tr>
</tbody></table>
<h2><span class="mw-headline" id="Filmography">Filmography</span></h2>
<h3><span class="mw-headline" id="Film">Film</span></h3>
<table class="wikitable"><tbody>
<tr><th>Year</th><th>Title</th><th>Role</th></tr>
<tr><td>1994</td><td><a href="/wiki/Heavenly_Creatures">Heavenly Creatures</a></td><td>Juliet</td></tr>
<tr><td>1997</td><td><a href="/wiki/Titanic_(1997_film)">Titanic</a></td><td>Rose</td></tr>
<tr><td>2000</td><td><a href="/wiki/A">A</a> and <a href="/wiki/B">B</a></td><td>Two links</td></tr>
</tbody></table>
<h2><span class="mw-headline" id="Awards">Awards</span></h2>
<table><tr><td><a href="/wiki/Oscar">Oscar</a></td></tr></table>
</body></html>`

const otherPage = `<html><body>
<table class="infobox"><tbody><tr><th>Occupation</th><td>Shipbuilder</td></tr></tbody></table>
</body></html>`

func TestParse_Movie(t *testing.T) {
	page, err := extract.Parse("/wiki/Titanic_(1997_film)", strings.NewReader(moviePage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Type != extract.PageMovie || page.Movie == nil {
		t.Fatalf("got type %v, want movie", page.Type)
	}
	m := page.Movie
	if m.Name != "Titanic (1997 film)" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Year != 1997 {
		t.Errorf("year = %d, want 1997", m.Year)
	}
	if m.TotalGrossing != 2.264e9 {
		t.Errorf("grossing = %v, want 2.264e9", m.TotalGrossing)
	}
	if want := []string{"/wiki/Leonardo_DiCaprio", "/wiki/Kate_Winslet"}; !reflect.DeepEqual(m.Starring, want) {
		t.Errorf("starring = %v, want %v", m.Starring, want)
	}
	if want := []string{"/wiki/Kate_Winslet", "/wiki/Billy_Zane"}; !reflect.DeepEqual(m.Cast, want) {
		t.Errorf("cast = %v, want %v", m.Cast, want)
	}
}

func TestParse_Actor(t *testing.T) {
	page, err := extract.Parse("/wiki/Kate_Winslet", strings.NewReader(actorPage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Type != extract.PageActor || page.Actor == nil {
		t.Fatalf("got type %v, want actor", page.Type)
	}
	a := page.Actor
	if a.Name != "Kate Winslet" || a.Age != 49 {
		t.Errorf("actor = %+v", a)
	}
	if want := []string{"/wiki/Heavenly_Creatures", "/wiki/Titanic_(1997_film)"}; !reflect.DeepEqual(a.Movies, want) {
		t.Errorf("movies = %v, want %v", a.Movies, want)
	}
}

func TestParse_Other(t *testing.T) {
	page, err := extract.Parse("/wiki/Thomas_Andrews", strings.NewReader(otherPage))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Type != extract.PageOther || page.Movie != nil || page.Actor != nil {
		t.Errorf("got %+v, want an empty other page", page)
	}
}

func TestParseGrossingFormats(t *testing.T) {
	cases := []struct {
		box  string
		want float64
	}{
		{"$100 million", 100e6},
		{"$1,234,567", 1234567},
		{"$2.5 billion[1]", 2.5e9},
		{"£30 million", 0},
	}
	for _, c := range cases {
		html := `<table class="infobox"><tr><th>Directed by</th><td>X</td></tr><tr><th>Box office</th><td>` + c.box + `</td></tr></table>`
		page, err := extract.Parse("/wiki/X", strings.NewReader(html))
		if err != nil || page.Movie == nil {
			t.Fatalf("%q: page %+v, err %v", c.box, page, err)
		}
		if page.Movie.TotalGrossing != c.want {
			t.Errorf("%q: grossing = %v, want %v", c.box, page.Movie.TotalGrossing, c.want)
		}
	}
}

func TestNameFromRef(t *testing.T) {
	cases := map[string]string{
		"/wiki/Kate_Winslet":        "Kate Winslet",
		"/wiki/Am%C3%A9lie":         "Amélie",
		"/wiki/Titanic_(1997_film)": "Titanic (1997 film)",
		"Plain":                     "Plain",
	}
	for ref, want := range cases {
		if got := extract.NameFromRef(ref); got != want {
			t.Errorf("NameFromRef(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestClient_ExtractCachesPages(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/wiki/Kate_Winslet":
			if ua := r.Header.Get("User-Agent"); ua != "moviegraph-test" {
				t.Errorf("user agent = %q", ua)
			}
			_, _ = w.Write([]byte(actorPage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := extract.NewClient(extract.Options{BaseURL: srv.URL, UserAgent: "moviegraph-test", CacheSize: 8})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	for i := 0; i < 3; i++ {
		page, err := c.Extract(context.Background(), "/wiki/Kate_Winslet")
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if page.Type != extract.PageActor {
			t.Errorf("type = %v", page.Type)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}

	if _, err := c.Extract(context.Background(), "/wiki/Missing"); err == nil {
		t.Error("expected an error for a 404 page")
	}
}

func TestClient_Resolve(t *testing.T) {
	c, err := extract.NewClient(extract.Options{BaseURL: "https://en.wikipedia.org"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Resolve("/wiki/Titanic_(1997_film)")
	if err != nil || got != "https://en.wikipedia.org/wiki/Titanic_(1997_film)" {
		t.Errorf("Resolve = %q, %v", got, err)
	}
	if _, err := extract.NewClient(extract.Options{BaseURL: "/relative"}); err == nil {
		t.Error("relative base url should be rejected")
	}
}
