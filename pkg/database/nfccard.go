package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type NfcCardRepository interface {
	Get(ctx context.Context, username string) (model.NfcCard, error)
	GetByCard(ctx context.Context, cardUID string) (model.NfcCard, error)
	Upsert(ctx context.Context, card model.NfcCard) (model.NfcCard, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]model.NfcCard, error)
}

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type NfcCardDatabase struct {
	DB Querier
}

func (nd *NfcCardDatabase) Get(ctx context.Context, username string) (model.NfcCard, error) {
	q := `
		select username, card_uid, added
		from nfc_cards
		where username = $1
	`

	var c model.NfcCard
	if err := nd.DB.QueryRowContext(ctx, q, username).Scan(&c.Username, &c.CardUID, &c.Added); err != nil {
		return model.NfcCard{}, fmt.Errorf("can't get card of %s: %w", username, mapError(err))
	}

	return c, nil
}

func (nd *NfcCardDatabase) GetByCard(ctx context.Context, cardUID string) (model.NfcCard, error) {
	q := `
		select username, card_uid, added
		from nfc_cards
		where card_uid = $1
	`

	var c model.NfcCard
	if err := nd.DB.QueryRowContext(ctx, q, cardUID).Scan(&c.Username, &c.CardUID, &c.Added); err != nil {
		return model.NfcCard{}, fmt.Errorf("can't get card %s: %w", cardUID, mapError(err))
	}

	return c, nil
}

// Upsert binds the card to the username, replacing any card the username had.
// A card bound to another username results in ErrConflict.
func (nd *NfcCardDatabase) Upsert(ctx context.Context, card model.NfcCard) (model.NfcCard, error) {
	if card.Added.IsZero() {
		card.Added = time.Now()
	}

	q := `
		insert into nfc_cards (username, card_uid, added)
		values ($1, $2, $3)
		on conflict (username) do update
		set card_uid = excluded.card_uid, added = excluded.added
		returning username, card_uid, added
	`

	var c model.NfcCard
	err := nd.DB.QueryRowContext(ctx, q, card.Username, card.CardUID, card.Added).Scan(&c.Username, &c.CardUID, &c.Added)
	if err != nil {
		return model.NfcCard{}, fmt.Errorf("can't upsert card of %s: %w", card.Username, mapError(err))
	}

	return c, nil
}

func (nd *NfcCardDatabase) Delete(ctx context.Context, username string) error {
	res, err := nd.DB.ExecContext(ctx, `delete from nfc_cards where username = $1`, username)
	if err != nil {
		return fmt.Errorf("can't delete card of %s: %w", username, err)
	}

	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("no card of %s: %w", username, ErrNotFound)
	}

	return nil
}

func (nd *NfcCardDatabase) List(ctx context.Context) ([]model.NfcCard, error) {
	q := `
		select username, card_uid, added
		from nfc_cards
		order by username
	`
	rows, err := nd.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("can't query cards: %w", err)
	}
	defer rows.Close()

	cards := make([]model.NfcCard, 0)
	for rows.Next() {
		var c model.NfcCard
		if err := rows.Scan(&c.Username, &c.CardUID, &c.Added); err != nil {
			return nil, fmt.Errorf("can't scan card: %w", err)
		}

		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over cards: %w", err)
	}

	return cards, nil
}
