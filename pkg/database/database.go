package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

const pgUniqueViolation = "23505"

func New(addr, database, user, password string) (db *sql.DB, close func() error, err error) {
	url := fmt.Sprintf("postgres://%s:%s@%s/%s", user, password, addr, database)

	db, err = sql.Open("pgx", url)
	if err != nil {
		return nil, nil, err
	}

	// a handful of kiosks share one database, keep the pool small
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, nil, err
	}

	return db, db.Close, nil
}

var migrations = []string{
	`
		create table if not exists nfc_cards (
			username varchar(8) primary key,
			card_uid varchar(20) not null unique,
			added    timestamptz not null default now()
		)
	`,
	`
		create table if not exists sale_attempts (
			id          bigserial primary key,
			member_id   integer not null,
			items       integer not null,
			quantity    integer not null,
			total_cents bigint not null,
			invoice_id  integer,
			error       text,
			created_at  timestamptz not null
		)
	`,
	`
		create index if not exists sale_attempts_member_id_idx on sale_attempts (member_id, created_at)
	`,
}

// Migrate creates the tables used by the kiosk if they don't exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("can't apply migration %d: %w", i, err)
		}
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}

	return err
}
