package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// EventType names a dashboard interaction
type EventType string

const (
	// EventTabSelected switches the visible page
	EventTabSelected EventType = "tab_selected"
	// EventRangeChanged moves the year slider
	EventRangeChanged EventType = "range_changed"
)

// Tab ids
const (
	TabPage1 = "page-1"
	TabPage2 = "page-2"
)

// Tab is one entry of the page selector
type Tab struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Tabs lists the pages in display order
var Tabs = []Tab{
	{ID: TabPage1, Label: "Page 1"},
	{ID: TabPage2, Label: "Page 2"},
}

// Dispatch errors
var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrUnknownTab   = errors.New("unknown tab")
	ErrMissingRange = errors.New("range_changed requires min_year and max_year")
	ErrPartialRange = errors.New("min_year and max_year must be given together")
)

// Event is a dashboard interaction. MinYear and MaxYear are only read by
// range_changed, and by tab_selected for page-1 where both or neither must be set.
type Event struct {
	Type    EventType `json:"type" validate:"required"`
	Tab     string    `json:"tab,omitempty"`
	MinYear *int      `json:"min_year,omitempty"`
	MaxYear *int      `json:"max_year,omitempty"`
}

// Range returns the event's explicit range, if it carries one
func (e Event) Range() (Range, bool) {
	if e.MinYear == nil || e.MaxYear == nil {
		return Range{}, false
	}
	return Range{MinYear: *e.MinYear, MaxYear: *e.MaxYear}, true
}

// Result is what a handler returns: the page that must be redrawn
type Result struct {
	Event EventType `json:"event"`
	Tab   string    `json:"tab"`
	Page1 *Page1    `json:"page1,omitempty"`
	Page2 *Page2    `json:"page2,omitempty"`
}

// Handler recomputes the page affected by an event
type Handler func(ctx context.Context, store *Store, ev Event) (*Result, error)

// Dispatcher routes events to handlers by type
type Dispatcher struct {
	store    *Store
	handlers map[EventType]Handler
}

// NewDispatcher returns a dispatcher with the tab and range handlers registered
func NewDispatcher(store *Store) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		handlers: make(map[EventType]Handler),
	}
	d.Register(EventTabSelected, handleTabSelected)
	d.Register(EventRangeChanged, handleRangeChanged)
	return d
}

// Register sets the handler for an event type, replacing any previous one
func (d *Dispatcher) Register(t EventType, h Handler) {
	d.handlers[t] = h
}

// Types lists the registered event types, sorted
func (d *Dispatcher) Types() []EventType {
	out := make([]EventType, 0, len(d.handlers))
	for t := range d.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs the handler registered for ev.Type
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*Result, error) {
	h, ok := d.handlers[ev.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h(ctx, d.store, ev)
}

func handleTabSelected(_ context.Context, store *Store, ev Event) (*Result, error) {
	switch ev.Tab {
	case TabPage1:
		r, ok := ev.Range()
		switch {
		case ok:
			if err := store.CheckRange(r); err != nil {
				return nil, err
			}
		case ev.MinYear != nil || ev.MaxYear != nil:
			return nil, ErrPartialRange
		default:
			r = store.Domain()
		}
		page, err := store.Page1(r)
		if err != nil {
			return nil, err
		}
		return &Result{Event: ev.Type, Tab: TabPage1, Page1: page}, nil
	case TabPage2:
		page, err := store.Page2()
		if err != nil {
			return nil, err
		}
		return &Result{Event: ev.Type, Tab: TabPage2, Page2: page}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, ev.Tab)
	}
}

func handleRangeChanged(_ context.Context, store *Store, ev Event) (*Result, error) {
	r, ok := ev.Range()
	if !ok {
		return nil, ErrMissingRange
	}
	if err := store.CheckRange(r); err != nil {
		return nil, err
	}
	page, err := store.Page1(r)
	if err != nil {
		return nil, err
	}
	return &Result{Event: ev.Type, Tab: TabPage1, Page1: page}, nil
}
