package crawl

import (
	"fmt"

	"github.com/gyaneshwarpardhi/moviegraph/internal/config"
)

// Policy decides how the actor and movie limits combine.
type Policy string

const (
	// PolicyBoth stops once both counts exceed their limits.
	PolicyBoth Policy = "both"
	// PolicyEither stops as soon as one count exceeds its limit.
	PolicyEither Policy = "either"
)

// Limits bounds a crawl. A limit <= 0 never triggers.
type Limits struct {
	Actors int
	Movies int
	Policy Policy
}

// LimitsFrom reads the limits out of a crawl config.
func LimitsFrom(conf config.CrawlConf) (Limits, error) {
	l := Limits{Actors: conf.ActorLimit, Movies: conf.MovieLimit, Policy: PolicyBoth}
	switch p := Policy(conf.LimitPolicy); p {
	case "":
	case PolicyBoth, PolicyEither:
		l.Policy = p
	default:
		return Limits{}, fmt.Errorf("unknown limit policy %q", conf.LimitPolicy)
	}
	return l, nil
}

// Reached reports whether a graph with the given counts should stop growing.
// A count has to strictly exceed its limit.
func (l Limits) Reached(actors, movies int) bool {
	actorsOver := l.Actors > 0 && actors > l.Actors
	moviesOver := l.Movies > 0 && movies > l.Movies
	if l.Policy == PolicyEither {
		return actorsOver || moviesOver
	}
	return actorsOver && moviesOver
}
