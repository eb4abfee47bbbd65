package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type Ping struct {
	Message string `json:"message"`
}

func (c *Client) Ping(ctx context.Context) (*Ping, error) {
	var p Ping
	if err := c.Request(ctx, http.MethodGet, "/ping", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) MemberByUsername(ctx context.Context, username string) (*model.Member, error) {
	var m model.Member
	if err := c.Request(ctx, http.MethodGet, "/members/username/"+url.PathEscape(username), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) MemberByID(ctx context.Context, id int) (*model.Member, error) {
	var m model.Member
	if err := c.Request(ctx, http.MethodGet, "/members/id/"+strconv.Itoa(id), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Folders(ctx context.Context) ([]model.Folder, error) {
	var fs []model.Folder
	if err := c.Request(ctx, http.MethodGet, "/folders", nil, nil, &fs); err != nil {
		return nil, err
	}
	return fs, nil
}

func (c *Client) ProductsByFolder(ctx context.Context, folderID int) ([]model.Product, error) {
	var ps []model.Product
	if err := c.Request(ctx, http.MethodGet, "/products/folder/"+strconv.Itoa(folderID), nil, nil, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (c *Client) PostSale(ctx context.Context, sale model.SaleRequest) (*model.SaleInvoice, error) {
	var inv model.SaleInvoice
	if err := c.Request(ctx, http.MethodPost, "/sales", nil, sale, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) SalesByUsername(ctx context.Context, username string, filter model.SaleFilter) ([]model.SaleInvoice, error) {
	var invs []model.SaleInvoice
	if err := c.Request(ctx, http.MethodGet, "/sales/"+url.PathEscape(username), filter.Query(), nil, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

func (c *Client) Sales(ctx context.Context, filter model.SaleFilter) ([]model.SaleInvoice, error) {
	var invs []model.SaleInvoice
	if err := c.Request(ctx, http.MethodGet, "/sales", filter.Query(), nil, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}
