package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

const (
	catalogKeyPrefix = "catalog:"
	foldersKey       = catalogKeyPrefix + "folders"
)

// CatalogCaching keeps folders and products in redis for TTL.
// Errors occurring when calling redis are not returned, the wrapped Catalog is used instead.
type CatalogCaching struct {
	Catalog

	Redis *redis.Client
	TTL   time.Duration
}

func (cc *CatalogCaching) Folders(ctx context.Context) ([]model.Folder, error) {
	var fs []model.Folder
	if cc.get(ctx, foldersKey, &fs) {
		return fs, nil
	}

	fs, err := cc.Catalog.Folders(ctx)
	if err != nil {
		return nil, err
	}

	cc.set(ctx, foldersKey, fs)
	return fs, nil
}

func (cc *CatalogCaching) Products(ctx context.Context, folderID int) ([]model.Product, error) {
	key := productsCacheKey(folderID)

	var ps []model.Product
	if cc.get(ctx, key, &ps) {
		return ps, nil
	}

	ps, err := cc.Catalog.Products(ctx, folderID)
	if err != nil {
		return nil, err
	}

	cc.set(ctx, key, ps)
	return ps, nil
}

func (cc *CatalogCaching) Product(ctx context.Context, folderID, productID int) (model.Product, error) {
	ps, err := cc.Products(ctx, folderID)
	if err != nil {
		return model.Product{}, err
	}

	return findProduct(ps, folderID, productID)
}

// Invalidate drops every cached catalog list.
func (cc *CatalogCaching) Invalidate(ctx context.Context) error {
	iter := cc.Redis.Scan(ctx, 0, catalogKeyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}
	return cc.Redis.Del(ctx, keys...).Err()
}

func (cc *CatalogCaching) get(ctx context.Context, key string, dst any) bool {
	val, err := cc.Redis.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false
	case err != nil:
		slog.Error("can't get catalog from redis", slog.String("key", key), slog.Any("error", err))
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		slog.Error("can't parse catalog cache value", slog.String("key", key), slog.Any("error", err))
		return false
	}

	return true
}

func (cc *CatalogCaching) set(ctx context.Context, key string, val any) {
	b, err := json.Marshal(val)
	if err != nil {
		slog.Error("can't marshal catalog cache value", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := cc.Redis.Set(ctx, key, b, cc.TTL).Err(); err != nil {
		slog.Error("can't set catalog in redis", slog.String("key", key), slog.Any("error", err))
	}
}

func productsCacheKey(folderID int) string {
	return catalogKeyPrefix + "products:" + strconv.Itoa(folderID)
}
