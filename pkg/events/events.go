// Package events publishes kiosk events to RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

const TypeSaleCompleted = "sale.completed"

type SaleCompleted struct {
	Type      string           `json:"type"`
	InvoiceID int              `json:"invoice_id"`
	MemberID  int              `json:"member_id"`
	Username  string           `json:"username"`
	Items     []model.SaleItem `json:"items"`
	Quantity  int              `json:"quantity"`
	Total     model.Cents      `json:"total"`
	At        time.Time        `json:"at"`
}

type Publisher interface {
	PublishSaleCompleted(ctx context.Context, e SaleCompleted) error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishSaleCompleted(context.Context, SaleCompleted) error { return nil }
