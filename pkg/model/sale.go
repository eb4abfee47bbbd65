package model

import (
	"net/url"
	"strconv"
)

type SaleItem struct {
	ProductOfferID int `json:"product_offer_id"`
	Quantity       int `json:"quantity"`
}

type SaleRequest struct {
	MemberID int        `json:"member_id"`
	Items    []SaleItem `json:"items"`
}

func (r SaleRequest) Quantity() int {
	var n int
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}

type SaleInvoice struct {
	ID            int               `json:"id"`
	MemberID      int               `json:"member_id"`
	Items         []SaleInvoiceItem `json:"items"`
	PricePaid     Cents             `json:"price_paid"`
	PriceUnpaid   Cents             `json:"price_unpaid"`
	InvoiceDate   Timestamp         `json:"invoice_date"`
	InvoiceSource string            `json:"invoice_source"`
	InvoiceType   string            `json:"invoice_type"`
	Created       Timestamp         `json:"created"`
	Modified      Timestamp         `json:"modified"`
}

func (i *SaleInvoice) Total() Cents {
	return i.PricePaid + i.PriceUnpaid
}

type SaleInvoiceItem struct {
	Name           string `json:"name"`
	Price          Cents  `json:"price"`
	ProductOfferID int    `json:"product_offer_id"`
	Quantity       int    `json:"quantity"`
	SaleInvoiceID  int    `json:"sale_invoice_id"`
}

// SaleFilter narrows down a sale invoice listing. Zero values are not sent.
type SaleFilter struct {
	Usernames       []string
	MemberIDs       []int
	InvoiceStatus   string
	InvoiceType     string
	PeriodFilter    string
	ProductOfferIDs []int
	Order           string
}

func (f SaleFilter) Query() url.Values {
	q := url.Values{}
	for _, u := range f.Usernames {
		q.Add("username", u)
	}
	for _, id := range f.MemberIDs {
		q.Add("member_id", strconv.Itoa(id))
	}
	if f.InvoiceStatus != "" {
		q.Set("invoice_status", f.InvoiceStatus)
	}
	if f.InvoiceType != "" {
		q.Set("invoice_type", f.InvoiceType)
	}
	if f.PeriodFilter != "" {
		q.Set("period_filter", f.PeriodFilter)
	}
	for _, id := range f.ProductOfferIDs {
		q.Add("product_offer_id", strconv.Itoa(id))
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}
	return q
}

// SaleAttempt is an audit record of a single sale submission.
type SaleAttempt struct {
	Base
	MemberID  int
	Items     int
	Quantity  int
	Total     Cents
	InvoiceID int // zero if the submission failed
	Error     string
}
