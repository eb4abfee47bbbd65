package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jellehierck/Streeplijst3/pkg/limiter"
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

var ErrLimitExceeded = errors.New("member exceeded the sales limit")

// SaleLimiting is a wrapper over Sale service
// which makes sure that a member can submit no more than Limiter.Limit sales per hour.
//
// If failed to check limits, the behavior depends on FailOpen flag. If set, current request is allowed.
// Otherwise, an error will be returned.
type SaleLimiting struct {
	Sale

	Limiter  *limiter.Limiter
	FailOpen bool
}

func (sl *SaleLimiting) Submit(ctx context.Context, req model.SaleRequest) (*model.SaleInvoice, error) {
	reserved, err := sl.Limiter.Reserve(ctx, req.MemberID)
	switch {
	case err != nil && !sl.FailOpen:
		return nil, fmt.Errorf("can't check if limit exceeded: %w", err)
	case err != nil:
		slog.Error("can't check if limit exceeded", slog.Any("error", err))
	case !reserved:
		return nil, ErrLimitExceeded
	}

	inv, err := sl.Sale.Submit(ctx, req)
	if err != nil {
		if reserved {
			if err := sl.Limiter.Release(context.WithoutCancel(ctx), req.MemberID); err != nil {
				slog.Error("can't release member's limit", slog.Any("error", err))
			}
		}
		return nil, err
	}

	return inv, nil
}
