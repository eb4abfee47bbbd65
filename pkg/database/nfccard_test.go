package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

var cardColumns = []string{"username", "card_uid", "added"}

func newCardDatabase(t *testing.T) (*NfcCardDatabase, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return &NfcCardDatabase{DB: db}, mock
}

func TestNfcCardDatabase_Get(t *testing.T) {
	ctx := context.Background()
	nd, mock := newCardDatabase(t)
	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`where username = \$1`).
		WithArgs("s1234567").
		WillReturnRows(sqlmock.NewRows(cardColumns).AddRow("s1234567", "04 A2 1B 3C", added))
	mock.ExpectQuery(`where username = \$1`).
		WithArgs("s0000000").
		WillReturnRows(sqlmock.NewRows(cardColumns))

	c, err := nd.Get(ctx, "s1234567")
	require.NoError(t, err)
	assert.Equal(t, model.NfcCard{Username: "s1234567", CardUID: "04 A2 1B 3C", Added: added}, c)

	_, err = nd.Get(ctx, "s0000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNfcCardDatabase_GetByCard(t *testing.T) {
	ctx := context.Background()
	nd, mock := newCardDatabase(t)

	mock.ExpectQuery(`where card_uid = \$1`).
		WithArgs("04 A2 1B 3C").
		WillReturnRows(sqlmock.NewRows(cardColumns).AddRow("s1234567", "04 A2 1B 3C", time.Now()))
	mock.ExpectQuery(`where card_uid = \$1`).
		WithArgs("DE AD BE EF").
		WillReturnRows(sqlmock.NewRows(cardColumns))

	c, err := nd.GetByCard(ctx, "04 A2 1B 3C")
	require.NoError(t, err)
	assert.Equal(t, "s1234567", c.Username)

	_, err = nd.GetByCard(ctx, "DE AD BE EF")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNfcCardDatabase_Upsert(t *testing.T) {
	ctx := context.Background()
	nd, mock := newCardDatabase(t)
	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`insert into nfc_cards`).
		WithArgs("s1234567", "04 A2 1B 3C", added).
		WillReturnRows(sqlmock.NewRows(cardColumns).AddRow("s1234567", "04 A2 1B 3C", added))
	mock.ExpectQuery(`insert into nfc_cards`).
		WithArgs("s7654321", "04 A2 1B 3C", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "nfc_cards_card_uid_key"})

	c, err := nd.Upsert(ctx, model.NfcCard{Username: "s1234567", CardUID: "04 A2 1B 3C", Added: added})
	require.NoError(t, err)
	assert.Equal(t, added, c.Added)

	_, err = nd.Upsert(ctx, model.NfcCard{Username: "s7654321", CardUID: "04 A2 1B 3C"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestNfcCardDatabase_Delete(t *testing.T) {
	ctx := context.Background()
	nd, mock := newCardDatabase(t)

	mock.ExpectExec(`delete from nfc_cards`).
		WithArgs("s1234567").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from nfc_cards`).
		WithArgs("s1234567").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, nd.Delete(ctx, "s1234567"))
	assert.ErrorIs(t, nd.Delete(ctx, "s1234567"), ErrNotFound)
}

func TestNfcCardDatabase_List(t *testing.T) {
	nd, mock := newCardDatabase(t)

	mock.ExpectQuery(`order by username`).
		WillReturnRows(sqlmock.NewRows(cardColumns).
			AddRow("m0000001", "04 00 00 01", time.Now()).
			AddRow("s1234567", "04 A2 1B 3C", time.Now()))

	cards, err := nd.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "m0000001", cards[0].Username)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`delete from nfc_cards`).WithArgs("s1234567").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return (&NfcCardDatabase{DB: tx}).Delete(context.Background(), "s1234567")
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
