package crawl

import (
	"fmt"
	"sync"

	"github.com/gyaneshwarpardhi/moviegraph/internal/metrics"
)

// NoPredecessor marks an item that was not discovered from a movie's cast.
const NoPredecessor = -1

// Item is a pending reference on the frontier.
type Item struct {
	Ref string
	// Predecessor is the id of the movie whose cast listed Ref, or NoPredecessor.
	Predecessor int
	// Weight is assigned to the movie/actor edge once Ref is added.
	Weight float64
}

// Discipline selects the order in which the frontier hands out items.
type Discipline string

const (
	// LIFO crawls depth-first: an actor's filmography is exhausted before siblings.
	LIFO Discipline = "lifo"
	// FIFO crawls breadth-first.
	FIFO Discipline = "fifo"
)

// ParseDiscipline maps a config value to a Discipline.
func ParseDiscipline(s string) (Discipline, error) {
	switch d := Discipline(s); d {
	case LIFO, FIFO:
		return d, nil
	}
	return "", fmt.Errorf("unknown frontier discipline %q", s)
}

// Frontier is the work list driving a crawl. It is safe for concurrent use.
type Frontier struct {
	mu         sync.Mutex
	discipline Discipline
	items      []Item
	head       int // first live item for FIFO
}

// NewFrontier creates an empty frontier.
func NewFrontier(d Discipline) *Frontier {
	return &Frontier{discipline: d}
}

// Push adds an item.
func (f *Frontier) Push(it Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, it)
	metrics.FrontierSize.Set(float64(len(f.items) - f.head))
}

// Pop removes the next item according to the discipline.
func (f *Frontier) Pop() (Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == f.head {
		return Item{}, false
	}
	var it Item
	if f.discipline == FIFO {
		it = f.items[f.head]
		f.items[f.head] = Item{}
		f.head++
		if f.head == len(f.items) {
			f.items, f.head = f.items[:0], 0
		}
	} else {
		last := len(f.items) - 1
		it = f.items[last]
		f.items = f.items[:last]
	}
	metrics.FrontierSize.Set(float64(len(f.items) - f.head))
	return it, true
}

// Len returns the number of pending items.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items) - f.head
}
