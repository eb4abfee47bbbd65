// Package nfc keeps the state of the card reader attached to a kiosk.
package nfc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

var ErrNoCard = errors.New("no card connected yet")

const (
	keyConnected = "nfc:connected"

	fieldCardUID   = "card_uid"
	fieldConnected = "connected"
	fieldCurrently = "currently_connected"
)

const redisTimeout = 300 * time.Millisecond

// Reader remembers the last card put on the reader. Only one card is remembered
// and it is never forgotten, only marked as disconnected.
type Reader struct {
	Redis *redis.Client
	Now   func() time.Time
}

func (r *Reader) Connect(ctx context.Context, cardUID string) (model.ConnectedCard, error) {
	uid, err := model.NormalizeCardUID(cardUID)
	if err != nil {
		return model.ConnectedCard{}, err
	}

	card := model.ConnectedCard{
		CardUID:            uid,
		CurrentlyConnected: true,
		Connected:          r.now(),
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	err = r.Redis.HSet(ctx, keyConnected,
		fieldCardUID, card.CardUID,
		fieldConnected, strconv.FormatInt(card.Connected.UnixNano(), 10),
		fieldCurrently, "1",
	).Err()
	if err != nil {
		return model.ConnectedCard{}, fmt.Errorf("can't store connected card: %w", err)
	}

	return card, nil
}

// Disconnect marks the last card as no longer on the reader.
func (r *Reader) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	exists, err := r.Redis.Exists(ctx, keyConnected).Result()
	if err != nil {
		return fmt.Errorf("can't check connected card: %w", err)
	}
	if exists == 0 {
		return nil
	}

	if err := r.Redis.HSet(ctx, keyConnected, fieldCurrently, "0").Err(); err != nil {
		return fmt.Errorf("can't mark card disconnected: %w", err)
	}

	return nil
}

func (r *Reader) Last(ctx context.Context) (model.ConnectedCard, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	vals, err := r.Redis.HGetAll(ctx, keyConnected).Result()
	if err != nil {
		return model.ConnectedCard{}, fmt.Errorf("can't get connected card: %w", err)
	}
	if len(vals) == 0 {
		return model.ConnectedCard{}, ErrNoCard
	}

	ns, err := strconv.ParseInt(vals[fieldConnected], 10, 64)
	if err != nil {
		return model.ConnectedCard{}, fmt.Errorf("can't parse connected time %q: %w", vals[fieldConnected], err)
	}

	return model.ConnectedCard{
		CardUID:            vals[fieldCardUID],
		CurrentlyConnected: vals[fieldCurrently] == "1",
		Connected:          time.Unix(0, ns),
	}, nil
}

// ConnectedRecently returns the last card if it was put on the reader within the given duration.
func (r *Reader) ConnectedRecently(ctx context.Context, within time.Duration) (model.ConnectedCard, bool, error) {
	card, err := r.Last(ctx)
	if errors.Is(err, ErrNoCard) {
		return model.ConnectedCard{}, false, nil
	}
	if err != nil {
		return model.ConnectedCard{}, false, err
	}

	return card, card.ConnectedWithin(r.now(), within), nil
}

func (r *Reader) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
