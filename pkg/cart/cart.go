// Package cart holds the products a member selected but did not buy yet.
package cart

import (
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type ActionType string

const (
	ActionAdd    ActionType = "ADD"
	ActionRemove ActionType = "REMOVE"
	ActionEmpty  ActionType = "EMPTY"
	ActionSold   ActionType = "SOLD"
)

type Action struct {
	Type     ActionType
	Product  model.Product
	Quantity int              // only used by ActionAdd
	Sold     []model.SaleItem // only used by ActionSold
}

type Item struct {
	Product  model.Product `json:"product"`
	Quantity int           `json:"quantity"`
}

// State is the list of items in the order they were first added.
// Every product appears at most once and every quantity is at least 1.
type State []Item

// Reduce returns the state after applying a. The input state is never modified.
//
// Removing always takes away a single unit, whatever amount was added at once.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionAdd:
		if a.Quantity < 1 {
			return s
		}

		idx := s.index(a.Product.ID)
		if idx < 0 {
			next := make(State, len(s), len(s)+1)
			copy(next, s)
			return append(next, Item{Product: a.Product, Quantity: a.Quantity})
		}

		next := s.clone()
		next[idx].Quantity += a.Quantity
		return next

	case ActionRemove:
		idx := s.index(a.Product.ID)
		if idx < 0 {
			return s
		}

		if s[idx].Quantity <= 1 {
			next := make(State, 0, len(s)-1)
			next = append(next, s[:idx]...)
			return append(next, s[idx+1:]...)
		}

		next := s.clone()
		next[idx].Quantity--
		return next

	case ActionEmpty:
		return State{}

	case ActionSold:
		return s.subtract(a.Sold)
	}

	return s
}

// subtract takes the sold quantities out of the state. Units added after the
// sale was submitted stay in the cart.
func (s State) subtract(sold []model.SaleItem) State {
	left := make(map[int]int, len(sold))
	for _, it := range sold {
		left[it.ProductOfferID] += it.Quantity
	}

	next := make(State, 0, len(s))
	for _, it := range s {
		n := min(left[it.Product.ProductOfferID], it.Quantity)
		left[it.Product.ProductOfferID] -= n
		if it.Quantity-n > 0 {
			it.Quantity -= n
			next = append(next, it)
		}
	}
	return next
}

func (s State) index(productID int) int {
	for i, it := range s {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	next := make(State, len(s))
	copy(next, s)
	return next
}

func (s State) Quantity(productID int) int {
	if idx := s.index(productID); idx >= 0 {
		return s[idx].Quantity
	}
	return 0
}

func (s State) Total() model.Cents {
	var total model.Cents
	for _, it := range s {
		total += it.Product.Price.Times(it.Quantity)
	}
	return total
}

// SaleItems is the wire payload of a sale for the current items.
func (s State) SaleItems() []model.SaleItem {
	items := make([]model.SaleItem, 0, len(s))
	for _, it := range s {
		items = append(items, model.SaleItem{
			ProductOfferID: it.Product.ProductOfferID,
			Quantity:       it.Quantity,
		})
	}
	return items
}
