package service

import (
	"context"
	"fmt"

	"github.com/jellehierck/Streeplijst3/pkg/config"
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type Catalog interface {
	Folders(ctx context.Context) ([]model.Folder, error)
	Products(ctx context.Context, folderID int) ([]model.Product, error)
	Product(ctx context.Context, folderID, productID int) (model.Product, error)
}

type CatalogAPI interface {
	Folders(ctx context.Context) ([]model.Folder, error)
	ProductsByFolder(ctx context.Context, folderID int) ([]model.Product, error)
}

// CatalogGeneric represents an implementation of Catalog interface containing core logics
// which can be wrapped in other implementations contained in catalog_*.go.
//
// Folders and products come from the API. Unpublished ones are dropped and the
// kiosk's folder configuration decides media, display name and visibility.
type CatalogGeneric struct {
	API     CatalogAPI
	Overlay *config.Folders
}

func (cg *CatalogGeneric) Folders(ctx context.Context) ([]model.Folder, error) {
	fs, err := cg.API.Folders(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get folders: %w", err)
	}

	out := make([]model.Folder, 0, len(fs))
	for _, f := range fs {
		if !f.Published {
			continue
		}

		if fo, ok := cg.Overlay.Lookup(f.ID); ok {
			if fo.Hide {
				continue
			}
			if fo.Name != "" {
				f.Name = fo.Name
			}
			if fo.Media != "" {
				f.Media = fo.Media
			}
		}

		if f.Media == "" && cg.Overlay != nil {
			f.Media = cg.Overlay.MissingMedia
		}

		out = append(out, f)
	}

	return out, nil
}

func (cg *CatalogGeneric) Products(ctx context.Context, folderID int) ([]model.Product, error) {
	ps, err := cg.API.ProductsByFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("can't get products of folder %d: %w", folderID, err)
	}

	out := make([]model.Product, 0, len(ps))
	for _, p := range ps {
		if !p.Published {
			continue
		}

		if (p.Media == nil || *p.Media == "") && cg.Overlay != nil && cg.Overlay.MissingMedia != "" {
			media := cg.Overlay.MissingMedia
			p.Media = &media
		}

		out = append(out, p)
	}

	return out, nil
}

func (cg *CatalogGeneric) Product(ctx context.Context, folderID, productID int) (model.Product, error) {
	ps, err := cg.Products(ctx, folderID)
	if err != nil {
		return model.Product{}, err
	}

	return findProduct(ps, folderID, productID)
}

func findProduct(ps []model.Product, folderID, productID int) (model.Product, error) {
	for _, p := range ps {
		if p.ID == productID {
			return p, nil
		}
	}
	return model.Product{}, fmt.Errorf("product %d in folder %d: %w", productID, folderID, model.ErrProductNotFound)
}
