package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type SaleLogging struct {
	Sale
}

func (sl *SaleLogging) Submit(ctx context.Context, req model.SaleRequest) (inv *model.SaleInvoice, err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.Int("member_id", req.MemberID),
			slog.Int("quantity", req.Quantity()),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to submit sale", slog.Any("error", err))
		} else {
			log.Info("sale submitted", slog.Int("invoice_id", inv.ID), slog.String("total", inv.Total().String()))
		}
	}(time.Now())

	return sl.Sale.Submit(ctx, req)
}

func (sl *SaleLogging) History(ctx context.Context, username string, filter model.SaleFilter) (invs []model.SaleInvoice, err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.String("username", username),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to get sales", slog.Any("error", err))
		} else {
			log.Debug("sales listed", slog.Int("invoices", len(invs)))
		}
	}(time.Now())

	return sl.Sale.History(ctx, username, filter)
}
