// Package alert holds the single message shown at the bottom of a kiosk screen.
package alert

import (
	"sync"
	"time"
)

type Variant string

const (
	VariantPrimary Variant = "primary"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantDanger  Variant = "danger"
	VariantInfo    Variant = "info"
)

type Alert struct {
	Heading string        `json:"heading,omitempty"`
	Message string        `json:"message"`
	Variant Variant       `json:"variant"`
	Timeout time.Duration `json:"-"`
}

// Store keeps at most one alert. An alert with a timeout is hidden once the
// timeout passes, unless it was replaced or hidden before that.
type Store struct {
	mu      sync.Mutex
	current *Alert
	gen     uint64
	timer   *time.Timer
	nextID  int
	subs    map[int]func(*Alert)
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(*Alert))}
}

// Set replaces the current alert and restarts the timer.
func (s *Store) Set(a Alert) {
	s.mu.Lock()
	s.stopTimer()
	s.gen++
	s.current = &a

	if a.Timeout > 0 {
		gen := s.gen
		s.timer = time.AfterFunc(a.Timeout, func() { s.expire(gen) })
	}

	subs := s.subscribers()
	s.mu.Unlock()

	s.notify(subs, &a)
}

// Hide clears the current alert and stops its timer.
func (s *Store) Hide() {
	s.mu.Lock()
	s.stopTimer()
	s.gen++
	had := s.current != nil
	s.current = nil
	subs := s.subscribers()
	s.mu.Unlock()

	if had {
		s.notify(subs, nil)
	}
}

// Current returns a copy of the shown alert, or nil.
func (s *Store) Current() *Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	a := *s.current
	return &a
}

// Subscribe registers fn to be called with the new alert (nil when hidden).
func (s *Store) Subscribe(fn func(*Alert)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close stops a pending timer without notifying anyone.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.gen++
}

func (s *Store) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	subs := s.subscribers()
	s.mu.Unlock()

	s.notify(subs, nil)
}

func (s *Store) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) subscribers() []func(*Alert) {
	subs := make([]func(*Alert), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Store) notify(subs []func(*Alert), a *Alert) {
	for _, fn := range subs {
		if a == nil {
			fn(nil)
			continue
		}
		cp := *a
		fn(&cp)
	}
}
