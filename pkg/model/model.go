package model

import (
	"errors"
	"time"
)

var (
	ErrNotLoggedIn       = errors.New("no member is logged in")
	ErrEmptyCart         = errors.New("shopping cart is empty")
	ErrCardNotRegistered = errors.New("card is not registered to a member")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidCardUID    = errors.New("invalid card uid")
	ErrFolderNotFound    = errors.New("folder not found")
	ErrProductNotFound   = errors.New("product not found")
)

type Base struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
