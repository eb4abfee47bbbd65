package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type Sale interface {
	Submit(ctx context.Context, req model.SaleRequest) (*model.SaleInvoice, error)
	History(ctx context.Context, username string, filter model.SaleFilter) ([]model.SaleInvoice, error)
}

type SaleAPI interface {
	PostSale(ctx context.Context, sale model.SaleRequest) (*model.SaleInvoice, error)
	SalesByUsername(ctx context.Context, username string, filter model.SaleFilter) ([]model.SaleInvoice, error)
}

// SaleGeneric posts sales to the API and keeps an audit record of every attempt.
type SaleGeneric struct {
	API      SaleAPI
	Attempts database.SaleAttemptRepository
}

func (sg *SaleGeneric) Submit(ctx context.Context, req model.SaleRequest) (inv *model.SaleInvoice, err error) {
	defer func() {
		if sg.Attempts == nil {
			return
		}

		a := model.SaleAttempt{
			Base:     model.Base{CreatedAt: time.Now()},
			MemberID: req.MemberID,
			Items:    len(req.Items),
			Quantity: req.Quantity(),
		}

		if err == nil {
			a.InvoiceID = inv.ID
			a.Total = inv.Total()
		} else {
			a.Error = err.Error()
		}

		if err := sg.Attempts.Add(ctx, a); err != nil {
			slog.Error("can't save sale attempt", slog.Any("error", err))
		}
	}()

	inv, err = sg.API.PostSale(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("can't post sale: %w", err)
	}

	return inv, nil
}

func (sg *SaleGeneric) History(ctx context.Context, username string, filter model.SaleFilter) ([]model.SaleInvoice, error) {
	invs, err := sg.API.SalesByUsername(ctx, username, filter)
	if err != nil {
		return nil, fmt.Errorf("can't get sales of %s: %w", username, err)
	}
	return invs, nil
}
