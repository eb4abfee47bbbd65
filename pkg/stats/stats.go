// Package stats summarises what a member bought over a list of sale invoices.
package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type ProductStat struct {
	ProductOfferID int         `json:"product_offer_id"`
	Name           string      `json:"name"`
	TotalPrice     model.Cents `json:"total_price"`
	TotalQuantity  int         `json:"total_quantity"`
	LastBought     time.Time   `json:"last_bought"`
}

type SortBy string

const (
	SortByName     SortBy = ""
	SortByPrice    SortBy = "price"
	SortByQuantity SortBy = "quantity"
	SortByRecent   SortBy = "recent"
)

func ParseSortBy(s string) (SortBy, error) {
	switch by := SortBy(strings.ToLower(s)); by {
	case SortByName, "name":
		return SortByName, nil
	case SortByPrice, SortByQuantity, SortByRecent:
		return by, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// Compute aggregates the invoice items per product offer, ordered by name.
func Compute(invoices []model.SaleInvoice) []ProductStat {
	byOffer := make(map[int]*ProductStat)

	for _, inv := range invoices {
		bought := inv.InvoiceDate.Time
		if bought.IsZero() {
			bought = inv.Created.Time
		}

		for _, it := range inv.Items {
			st, ok := byOffer[it.ProductOfferID]
			if !ok {
				st = &ProductStat{ProductOfferID: it.ProductOfferID, Name: it.Name}
				byOffer[it.ProductOfferID] = st
			}

			st.TotalPrice += it.Price.Times(it.Quantity)
			st.TotalQuantity += it.Quantity
			if bought.After(st.LastBought) {
				st.LastBought = bought
			}
		}
	}

	out := make([]ProductStat, 0, len(byOffer))
	for _, st := range byOffer {
		out = append(out, *st)
	}

	Sort(out, SortByName, false)
	return out
}

// Sort orders stats in place. Ties keep name order.
func Sort(stats []ProductStat, by SortBy, descending bool) {
	byName := func(a, b ProductStat) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ProductOfferID, b.ProductOfferID))
	}

	var key func(a, b ProductStat) int
	switch by {
	case SortByPrice:
		key = func(a, b ProductStat) int { return cmp.Compare(a.TotalPrice, b.TotalPrice) }
	case SortByQuantity:
		key = func(a, b ProductStat) int { return cmp.Compare(a.TotalQuantity, b.TotalQuantity) }
	case SortByRecent:
		key = func(a, b ProductStat) int { return a.LastBought.Compare(b.LastBought) }
	default:
		key = byName
	}

	slices.SortFunc(stats, func(a, b ProductStat) int {
		c := key(a, b)
		if descending {
			c = -c
		}
		return cmp.Or(c, byName(a, b))
	})
}
