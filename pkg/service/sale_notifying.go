package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/events"
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

// SaleNotifying publishes an event for every completed sale. A failed publish
// does not fail the sale.
type SaleNotifying struct {
	Sale

	Publisher events.Publisher
}

func (sn *SaleNotifying) Submit(ctx context.Context, req model.SaleRequest) (*model.SaleInvoice, error) {
	inv, err := sn.Sale.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	e := events.SaleCompleted{
		InvoiceID: inv.ID,
		MemberID:  req.MemberID,
		Items:     req.Items,
		Quantity:  req.Quantity(),
		Total:     inv.Total(),
		At:        time.Now(),
	}

	if err := sn.Publisher.PublishSaleCompleted(context.WithoutCancel(ctx), e); err != nil {
		slog.Error("can't publish sale event", slog.Int("invoice_id", inv.ID), slog.Any("error", err))
	}

	return inv, nil
}
