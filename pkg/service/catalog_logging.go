package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type CatalogLogging struct {
	Catalog
}

func (cl *CatalogLogging) Folders(ctx context.Context) (fs []model.Folder, err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.Int("folders", len(fs)),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to list folders", slog.Any("error", err))
		} else {
			log.Debug("folders listed")
		}
	}(time.Now())

	return cl.Catalog.Folders(ctx)
}

func (cl *CatalogLogging) Products(ctx context.Context, folderID int) (ps []model.Product, err error) {
	defer func(t0 time.Time) {
		log := slog.With(
			slog.Int("folder_id", folderID),
			slog.Int("products", len(ps)),
			slog.String("delay", time.Since(t0).String()),
		)

		if err != nil {
			log.Error("failed to list products", slog.Any("error", err))
		} else {
			log.Debug("products listed")
		}
	}(time.Now())

	return cl.Catalog.Products(ctx, folderID)
}
