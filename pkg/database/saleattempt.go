package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

const saleAttemptColumns = 7

type SaleAttemptRepository interface {
	Add(context.Context, ...model.SaleAttempt) error
}

type SaleAttemptDatabase struct {
	DB *sql.DB
}

func (sd *SaleAttemptDatabase) Add(ctx context.Context, attempts ...model.SaleAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	q := buildBatchQuery(len(attempts))

	args := make([]any, 0, len(attempts)*saleAttemptColumns)
	for _, a := range attempts {
		invoiceID := sql.NullInt64{Int64: int64(a.InvoiceID), Valid: a.InvoiceID != 0}
		errMsg := sql.NullString{String: a.Error, Valid: a.Error != ""}

		args = append(args, a.MemberID, a.Items, a.Quantity, int64(a.Total), invoiceID, errMsg, a.CreatedAt)
	}

	res, err := sd.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert sale attempts: %w", err)
	}

	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	} else if int(affected) != len(attempts) {
		return fmt.Errorf("expected %d records to be inserted, got %d", len(attempts), affected)
	}

	return nil
}

func buildBatchQuery(rows int) string {
	sb := strings.Builder{}
	sb.WriteString("insert into sale_attempts (member_id, items, quantity, total_cents, invoice_id, error, created_at) values ")

	phs := make([]string, 0, rows)

	for i := range rows {
		ph := make([]string, saleAttemptColumns)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*saleAttemptColumns+j+1)
		}
		phs = append(phs, "("+strings.Join(ph, ", ")+")")
	}

	sb.WriteString(strings.Join(phs, ","))
	return sb.String()
}

// SaleAttemptBatchingDatabase buffers sale attempts and writes them in batches,
// either when the buffer is full or when the flush interval passes.
type SaleAttemptBatchingDatabase struct {
	next          SaleAttemptRepository
	buffer        []model.SaleAttempt
	batchSize     int
	flushInterval time.Duration
	mu            sync.Mutex
	wg            sync.WaitGroup
}

func NewSaleAttemptBatchingDatabase(next SaleAttemptRepository, batchSize int, flushInterval time.Duration) *SaleAttemptBatchingDatabase {
	if batchSize < 1 {
		batchSize = 1
	}

	return &SaleAttemptBatchingDatabase{
		next:          next,
		buffer:        make([]model.SaleAttempt, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

func (sd *SaleAttemptBatchingDatabase) Add(ctx context.Context, attempts ...model.SaleAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	sd.mu.Lock()
	sd.buffer = append(sd.buffer, attempts...)
	shouldFlush := len(sd.buffer) >= sd.batchSize
	sd.mu.Unlock()

	if shouldFlush {
		sd.wg.Add(1)
		go func() {
			defer sd.wg.Done()
			if err := sd.flush(); err != nil {
				slog.Error("can't flush sale attempts buffer", slog.Any("error", err))
			}
		}()
	}

	return nil
}

// Run flushes the buffer every flush interval until ctx is done, then flushes
// what is left and waits for flushes in progress.
func (sd *SaleAttemptBatchingDatabase) Run(ctx context.Context) {
	ticker := time.NewTicker(sd.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := sd.flush(); err != nil {
				slog.Error("can't flush sale attempts buffer on shutdown", slog.Any("error", err))
			}
			sd.wg.Wait()
			return

		case <-ticker.C:
			if err := sd.flush(); err != nil {
				slog.Error("can't flush sale attempts buffer", slog.Any("error", err))
			}
		}
	}
}

func (sd *SaleAttemptBatchingDatabase) flush() error {
	sd.mu.Lock()
	if len(sd.buffer) == 0 {
		sd.mu.Unlock()
		return nil
	}

	batch := make([]model.SaleAttempt, len(sd.buffer))
	copy(batch, sd.buffer)
	sd.buffer = sd.buffer[:0]
	sd.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := sd.next.Add(ctx, batch...); err != nil {
		return fmt.Errorf("can't insert batch of %d: %w", len(batch), err)
	}

	return nil
}
