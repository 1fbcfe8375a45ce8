package main

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gregoryjjb/cyclist/circularbuffer"
	"gregoryjjb/cyclist/cyclic"
	"gregoryjjb/cyclist/pubsub"
)

var rlog zerolog.Logger

func init() {
	rlog = log.With().Str("component", "registry").Logger()
}

var (
	ErrNotExist   = errors.New("doesn't exist")
	ErrExists     = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	ErrLimit      = errors.New("limit reached")
)

const maxNameLength = 64

var badNameRegex = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func ValidateBufferName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: buffer name cannot be blank", ErrValidation)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: buffer name longer than %d characters", ErrValidation, maxNameLength)
	}

	m := badNameRegex.FindAllString(name, -1)
	if len(m) > 0 {
		return fmt.Errorf("%w: buffer name contains disallowed characters %q", ErrValidation, m)
	}

	return nil
}

// Registry owns the named buffers served by the daemon.
type Registry struct {
	config  *Config
	metrics *Metrics
	events  *pubsub.Pubsub[Event]
	history *circularbuffer.CircularBuffer[Event]

	buffers map[string]*Buffer
	mu      sync.RWMutex
}

func NewRegistry(config *Config, metrics *Metrics) *Registry {
	return &Registry{
		config:  config,
		metrics: metrics,
		events: pubsub.New[Event](pubsub.WithDropHandler(func(_ pubsub.SubscriptionID, _ Event) {
			metrics.EventsDropped.Inc()
		})),
		history: circularbuffer.New[Event](config.HistorySize()),
		buffers: make(map[string]*Buffer),
	}
}

// Create adds an empty buffer. A capacity of zero or less uses the
// configured default.
func (r *Registry) Create(name string, capacity int) (*Buffer, error) {
	if capacity <= 0 {
		capacity = r.config.DefaultCapacity()
	}
	if err := r.checkCapacity(capacity); err != nil {
		r.metrics.fault("create", err)
		return nil, err
	}
	list, err := cyclic.NewWithCapacity[string](capacity)
	if err != nil {
		r.metrics.fault("create", err)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.add("create", name, list)
}

func (r *Registry) Get(name string) (*Buffer, error) {
	if err := ValidateBufferName(name); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buffers[name]
	if !ok {
		return nil, fmt.Errorf("buffer %q %w", name, ErrNotExist)
	}
	return b, nil
}

func (r *Registry) Delete(name string) error {
	if err := ValidateBufferName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buffers[name]
	if !ok {
		return fmt.Errorf("buffer %q %w", name, ErrNotExist)
	}
	delete(r.buffers, name)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.deleted = true
	// Recording observes the gauges, so they are only dropped afterwards.
	r.record("delete", b.stats())
	r.metrics.forget(name)
	return nil
}

// Names returns every buffer name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.buffers))
	for name := range r.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone copies the buffer named from into a new buffer named to.
func (r *Registry) Clone(from, to string) (*Buffer, error) {
	src, err := r.Get(from)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkAvailable(to); err != nil {
		r.metrics.fault("clone", err)
		return nil, err
	}

	src.mu.Lock()
	list, err := src.list.Clone()
	src.mu.Unlock()
	if err != nil {
		r.metrics.fault("clone", err)
		return nil, err
	}

	return r.add("clone", to, list)
}

// Split moves the elements of from starting at position at into a new
// buffer named to.
func (r *Registry) Split(from string, at int, to string) (*Buffer, error) {
	src, err := r.Get(from)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkAvailable(to); err != nil {
		r.metrics.fault("split", err)
		return nil, err
	}

	src.mu.Lock()
	if src.deleted {
		src.mu.Unlock()
		return nil, fmt.Errorf("buffer %q %w", from, ErrNotExist)
	}
	tail, err := src.list.Split(at)
	if err != nil {
		src.mu.Unlock()
		r.metrics.fault("split", err)
		return nil, err
	}
	r.record("split", src.stats())
	src.mu.Unlock()

	return r.add("split", to, tail)
}

// Subscribe streams every event until the returned cancel func is called.
func (r *Registry) Subscribe() (func(), <-chan Event) {
	id, ch := r.events.Subscribe(r.config.SubscriberBuffer())
	return func() {
		r.events.Unsubscribe(id)
	}, ch
}

// History returns the most recent events, oldest first.
func (r *Registry) History() []Event {
	return r.history.Snapshot()
}

// checkCapacity rejects allocations above the configured per-buffer limit.
func (r *Registry) checkCapacity(capacity int) error {
	if limit := r.config.MaxCapacity(); capacity > limit {
		return fmt.Errorf("%w: %d slots requested, limit %d", cyclic.ErrCapacity, capacity, limit)
	}
	return nil
}

func (r *Registry) checkAvailable(name string) error {
	if err := ValidateBufferName(name); err != nil {
		return err
	}
	if _, ok := r.buffers[name]; ok {
		return fmt.Errorf("%w: buffer %q", ErrExists, name)
	}
	if len(r.buffers) >= r.config.MaxBuffers() {
		return fmt.Errorf("%w: at most %d buffers", ErrLimit, r.config.MaxBuffers())
	}
	return nil
}

// add registers list under name. The caller must hold r.mu.
func (r *Registry) add(op string, name string, list *cyclic.List[string]) (*Buffer, error) {
	if err := r.checkAvailable(name); err != nil {
		r.metrics.fault(op, err)
		return nil, err
	}

	b := &Buffer{
		name:     name,
		created:  time.Now().UTC(),
		list:     list,
		rotation: NewCircularList(list),
		registry: r,
	}
	r.buffers[name] = b

	rlog.Debug().Str("buffer", name).Str("op", op).Int("capacity", list.Cap()).Msg("Buffer added")
	r.record(op, b.Stats())
	return b, nil
}

func (r *Registry) record(op string, stats BufferStats) {
	r.metrics.observe(op, stats)
	ev := newEvent(op, stats)
	r.history.Push(ev)
	r.events.Publish(ev)
}

// BufferStats is a point in time description of a buffer.
type BufferStats struct {
	Name     string    `json:"name"`
	Size     int       `json:"size"`
	Capacity int       `json:"capacity"`
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
}

// Buffer is a named list. The list itself is single-writer, so every access
// goes through mu.
type Buffer struct {
	name     string
	created  time.Time
	list     *cyclic.List[string]
	rotation *CircularList[string]
	registry *Registry
	deleted  bool
	mu       sync.Mutex
}

func (b *Buffer) Name() string {
	return b.name
}

// Append adds values to the end. Either all of them are added or none.
func (b *Buffer) Append(values ...string) error {
	if len(values) == 0 {
		return nil
	}
	return b.mutate("append", func() error {
		if err := b.reserve(len(values)); err != nil {
			return err
		}
		for _, v := range values {
			if err := b.list.Append(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Buffer) Prepend(values ...string) error {
	if len(values) == 0 {
		return nil
	}
	return b.mutate("prepend", func() error {
		if err := b.reserve(len(values)); err != nil {
			return err
		}
		for i := len(values) - 1; i >= 0; i-- {
			if err := b.list.Prepend(values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Buffer) Set(i int, value string) error {
	return b.mutate("set", func() error {
		return b.list.Set(i, value)
	})
}

func (b *Buffer) PopFirst() (string, error) {
	var v string
	err := b.mutate("pop_first", func() error {
		var err error
		v, err = b.list.RemoveFirst()
		return err
	})
	return v, err
}

func (b *Buffer) PopLast() (string, error) {
	var v string
	err := b.mutate("pop_last", func() error {
		var err error
		v, err = b.list.RemoveLast()
		return err
	})
	return v, err
}

func (b *Buffer) EnsureCapacity(minCapacity int) error {
	return b.mutate("ensure_capacity", func() error {
		if err := b.registry.checkCapacity(minCapacity); err != nil {
			return err
		}
		return b.list.EnsureCapacity(minCapacity)
	})
}

// reserve grows the list to fit n more values. The caller must hold b.mu.
func (b *Buffer) reserve(n int) error {
	if n > b.registry.config.MaxCapacity()-b.list.Len() {
		return fmt.Errorf("%w: %d values do not fit in %d slots", cyclic.ErrCapacity, b.list.Len()+n, b.registry.config.MaxCapacity())
	}
	return b.list.EnsureCapacity(b.list.Len() + n)
}

func (b *Buffer) Trim() error {
	return b.mutate("trim", b.list.TrimToSize)
}

func (b *Buffer) Clear() error {
	return b.mutate("clear", func() error {
		if err := b.list.Clear(); err != nil {
			return err
		}
		b.rotation.Clear()
		return nil
	})
}

func (b *Buffer) At(i int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, err := b.list.Get(i)
	if err != nil {
		b.registry.metrics.fault("get", err)
	}
	return v, err
}

// Snapshot returns the buffer's contents in order.
func (b *Buffer) Snapshot() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.list.ToSlice()
	if err != nil {
		b.registry.metrics.fault("snapshot", err)
	}
	return values, err
}

// Next returns the element under the round-robin cursor and moves the
// cursor along.
func (b *Buffer) Next() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rotation.Length() == 0 {
		err := fmt.Errorf("%w: buffer %q is empty", cyclic.ErrOutOfRange, b.name)
		b.registry.metrics.fault("next", err)
		return "", err
	}
	v := b.rotation.Current()
	b.rotation.Advance()
	return v, nil
}

func (b *Buffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.stats()
}

func (b *Buffer) stats() BufferStats {
	return BufferStats{
		Name:     b.name,
		Size:     b.list.Len(),
		Capacity: b.list.Cap(),
		Version:  b.list.Version(),
		Created:  b.created,
	}
}

// mutate runs fn under the buffer lock and records the outcome. The event is
// recorded before the lock is released so a buffer's events stay in version
// order.
func (b *Buffer) mutate(op string, fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleted {
		return fmt.Errorf("buffer %q %w", b.name, ErrNotExist)
	}
	if err := fn(); err != nil {
		b.registry.metrics.fault(op, err)
		rlog.Debug().Err(err).Str("buffer", b.name).Str("op", op).Msg("Buffer operation failed")
		return err
	}
	b.registry.record(op, b.stats())
	return nil
}
