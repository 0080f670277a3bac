// Package snapshot provides the shared read-only dataset handle.
//
// A Holder always points to a complete, immutable table. Reloading builds a new table and
// swaps the pointer, readers that already hold a snapshot keep working on the old one.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/stats"
)

var ErrNotLoaded = errors.New("no dataset loaded")

type (
	Snapshot struct {
		ID       uuid.UUID
		LoadedAt time.Time
		Source   string
		Table    *dataset.Table
		Stats    *stats.Aggregator
	}
	Loader interface {
		Load(ctx context.Context) (*dataset.Table, error)
		Source() string
	}
	// Listener is called after a new snapshot became current.
	Listener func(s *Snapshot)
	Option   func(*Holder)
	Holder   struct {
		current   atomic.Pointer[Snapshot]
		loader    Loader
		reloadMu  sync.Mutex
		listMu    sync.RWMutex
		listeners []Listener
		log       *log.Logger
	}
)

func WithLogger(l *log.Logger) Option {
	return func(h *Holder) {
		h.log = l
	}
}

func WithListener(l Listener) Option {
	return func(h *Holder) {
		h.listeners = append(h.listeners, l)
	}
}

func NewHolder(loader Loader, opts ...Option) *Holder {
	h := &Holder{
		loader: loader,
		log:    log.Default().Named("snapshot"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Current returns the active snapshot or ErrNotLoaded.
func (h *Holder) Current() (*Snapshot, error) {
	if s := h.current.Load(); s != nil {
		return s, nil
	}
	return nil, ErrNotLoaded
}

// OnSwap registers a listener for future swaps.
func (h *Holder) OnSwap(l Listener) {
	h.listMu.Lock()
	defer h.listMu.Unlock()
	h.listeners = append(h.listeners, l)
}

// Reload loads a fresh table from the loader. On error the current snapshot stays active.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	if h.loader == nil {
		return nil, errors.New("no loader configured")
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	start := time.Now()
	table, err := h.loader.Load(ctx)
	if err != nil {
		h.log.Error("could not load dataset",
			log.String("source", h.loader.Source()),
			log.ErrorField(err))
		return nil, err
	}
	s := h.swap(table, h.loader.Source())
	h.log.Info("dataset loaded",
		log.String("source", s.Source),
		log.String("id", s.ID.String()),
		log.Int("rows", table.Len()),
		log.Duration("duration", time.Since(start)))
	return s, nil
}

// Set makes table the current snapshot.
func (h *Holder) Set(table *dataset.Table, source string) *Snapshot {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	return h.swap(table, source)
}

func (h *Holder) swap(table *dataset.Table, source string) *Snapshot {
	s := &Snapshot{
		ID:       uuid.New(),
		LoadedAt: time.Now(),
		Source:   source,
		Table:    table,
		Stats:    stats.New(table),
	}
	h.current.Store(s)

	h.listMu.RLock()
	listeners := append([]Listener(nil), h.listeners...)
	h.listMu.RUnlock()
	for _, l := range listeners {
		l(s)
	}
	return s
}
