package cart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

var (
	cola  = model.Product{ID: 1, ProductOfferID: 101, Name: "Cola", Price: 70}
	chips = model.Product{ID: 2, ProductOfferID: 102, Name: "Chips", Price: 60}
	mars  = model.Product{ID: 3, ProductOfferID: 103, Name: "Mars", Price: 85}
)

func TestReduce_AddMergesQuantities(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 2})
	s = Reduce(s, Action{Type: ActionAdd, Product: chips, Quantity: 1})
	s = Reduce(s, Action{Type: ActionAdd, Product: cola, Quantity: 3})

	require.Len(t, s, 2)
	assert.Equal(t, 5, s.Quantity(cola.ID))
	assert.Equal(t, 1, s.Quantity(chips.ID))
	assert.Equal(t, cola.ID, s[0].Product.ID, "insertion order is kept")
}

func TestReduce_AddNonPositiveIsNoop(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 0})
	assert.Empty(t, s)

	s = Reduce(s, Action{Type: ActionAdd, Product: cola, Quantity: -2})
	assert.Empty(t, s)
}

func TestReduce_RemoveDecrementsByOne(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 3})
	s = Reduce(s, Action{Type: ActionRemove, Product: cola, Quantity: 3})

	assert.Equal(t, 2, s.Quantity(cola.ID))
}

func TestReduce_RemoveMissingIsNoop(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 1})
	next := Reduce(s, Action{Type: ActionRemove, Product: chips})

	assert.Equal(t, s, next)
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 2})
	_ = Reduce(s, Action{Type: ActionAdd, Product: cola, Quantity: 1})
	_ = Reduce(s, Action{Type: ActionRemove, Product: cola})

	assert.Equal(t, 2, s.Quantity(cola.ID))
}

func TestReduce_AddThenRemoveEmpties(t *testing.T) {
	for n := 1; n <= 5; n++ {
		s := Reduce(State{}, Action{Type: ActionAdd, Product: mars, Quantity: n})
		for i := 0; i < n; i++ {
			s = Reduce(s, Action{Type: ActionRemove, Product: mars})
		}
		assert.Equal(t, 0, s.Quantity(mars.ID))
		assert.Empty(t, s)

		s = Reduce(s, Action{Type: ActionRemove, Product: mars})
		assert.Empty(t, s, "never goes negative")
	}
}

func TestReduce_InvariantsHoldForRandomSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	products := []model.Product{cola, chips, mars}

	s := State{}
	for i := 0; i < 2000; i++ {
		p := products[rnd.Intn(len(products))]
		switch rnd.Intn(7) {
		case 0:
			s = Reduce(s, Action{Type: ActionEmpty})
		case 1, 2, 3:
			s = Reduce(s, Action{Type: ActionAdd, Product: p, Quantity: rnd.Intn(4)})
		default:
			s = Reduce(s, Action{Type: ActionRemove, Product: p})
		}

		seen := map[int]bool{}
		var want model.Cents
		for _, it := range s {
			require.False(t, seen[it.Product.ID], "product %d appears twice", it.Product.ID)
			require.GreaterOrEqual(t, it.Quantity, 1)
			seen[it.Product.ID] = true
			want += it.Product.Price * model.Cents(it.Quantity)
		}
		require.Equal(t, want, s.Total())
	}
}

func TestState_TotalRoundTripsThroughSaleItems(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 2})
	s = Reduce(s, Action{Type: ActionAdd, Product: chips, Quantity: 1})
	s = Reduce(s, Action{Type: ActionAdd, Product: mars, Quantity: 4})

	byOffer := map[int]model.Product{}
	for _, p := range []model.Product{cola, chips, mars} {
		byOffer[p.ProductOfferID] = p
	}

	rebuilt := State{}
	for _, it := range s.SaleItems() {
		rebuilt = Reduce(rebuilt, Action{Type: ActionAdd, Product: byOffer[it.ProductOfferID], Quantity: it.Quantity})
	}

	assert.Equal(t, model.Cents(2*70+60+4*85), s.Total())
	assert.Equal(t, s.Total(), rebuilt.Total())
}

func TestStore(t *testing.T) {
	s := NewStore()

	var calls int
	unsubscribe := s.Subscribe(func(State) { calls++ })

	s.Add(cola, 2)
	s.Add(chips, 1)
	assert.Equal(t, model.Cents(2*70+60), s.Total())
	assert.Equal(t, 2, s.Quantity(cola))
	assert.Equal(t, 0, s.Quantity(mars))
	assert.Equal(t, []model.SaleItem{{ProductOfferID: 101, Quantity: 2}, {ProductOfferID: 102, Quantity: 1}}, s.SaleItems())

	s.Remove(mars) // no change, no notification
	assert.Equal(t, 2, calls)

	s.Empty()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 3, calls)

	unsubscribe()
	s.Add(cola, 1)
	assert.Equal(t, 3, calls)
}

func TestStore_ItemsIsACopy(t *testing.T) {
	s := NewStore()
	s.Add(cola, 1)

	items := s.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, s.Quantity(cola))
}

func TestReduce_SoldKeepsUnitsAddedLater(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 1})
	sold := s.SaleItems()

	s = Reduce(s, Action{Type: ActionAdd, Product: chips, Quantity: 2})
	s = Reduce(s, Action{Type: ActionAdd, Product: cola, Quantity: 1})
	before := s.clone()

	next := Reduce(s, Action{Type: ActionSold, Sold: sold})
	assert.Equal(t, before, s, "input state is not modified")
	require.Len(t, next, 2)
	assert.Equal(t, 1, next.Quantity(cola.ID))
	assert.Equal(t, 2, next.Quantity(chips.ID))

	next = Reduce(next, Action{Type: ActionSold, Sold: next.SaleItems()})
	assert.Empty(t, next)
}

func TestReduce_SoldMoreThanHeldIsDropped(t *testing.T) {
	s := Reduce(State{}, Action{Type: ActionAdd, Product: cola, Quantity: 1})

	s = Reduce(s, Action{Type: ActionSold, Sold: []model.SaleItem{
		{ProductOfferID: cola.ProductOfferID, Quantity: 3},
		{ProductOfferID: mars.ProductOfferID, Quantity: 1},
	}})
	assert.Empty(t, s)
}
