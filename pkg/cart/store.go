package cart

import (
	"sync"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

// Store applies actions to a cart state and notifies subscribers of every change.
type Store struct {
	mu     sync.RWMutex
	state  State
	nextID int
	subs   map[int]func(State)
}

func NewStore() *Store {
	return &Store{
		state: State{},
		subs:  make(map[int]func(State)),
	}
}

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	prev := s.state
	s.state = Reduce(s.state, a)
	changed := !sameState(prev, s.state)
	state, subs := s.state, s.subscribers()
	s.mu.Unlock()

	if !changed {
		return
	}

	for _, fn := range subs {
		fn(state)
	}
}

func (s *Store) Add(p model.Product, quantity int) {
	s.Dispatch(Action{Type: ActionAdd, Product: p, Quantity: quantity})
}

func (s *Store) Remove(p model.Product) {
	s.Dispatch(Action{Type: ActionRemove, Product: p})
}

func (s *Store) Empty() {
	s.Dispatch(Action{Type: ActionEmpty})
}

// Sold takes the quantities of a submitted sale out of the cart.
func (s *Store) Sold(items []model.SaleItem) {
	s.Dispatch(Action{Type: ActionSold, Sold: items})
}

// Items returns a copy of the current items.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state)
}

func (s *Store) Quantity(p model.Product) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Quantity(p.ID)
}

func (s *Store) Total() model.Cents {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Total()
}

func (s *Store) SaleItems() []model.SaleItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SaleItems()
}

// Subscribe registers fn to be called after every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
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

func (s *Store) subscribers() []func(State) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func sameState(a, b State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Product.ID != b[i].Product.ID || a[i].Quantity != b[i].Quantity {
			return false
		}
	}
	return true
}
