package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type fakeRow struct {
	balance int
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*int); ok {
			*p = r.balance
		}
	}
	return nil
}

type stubExecutor struct {
	row   fakeRow
	execs [][]any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, args)
	return pgconn.CommandTag{}, nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestDeductWritesDebitEntry(t *testing.T) {
	sql := &stubExecutor{row: fakeRow{balance: 95}}
	ledger := NewLedger(sql, zerolog.Nop())

	if !ledger.Deduct(context.Background(), "u1", "req-1", 5, "image_generation") {
		t.Fatalf("deduct should succeed")
	}
	if len(sql.execs) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(sql.execs))
	}
	args := sql.execs[0]
	if args[0] != "u1" || args[1] != "req-1" || args[2] != 5 {
		t.Fatalf("entry args = %v", args)
	}
	if args[3] != directionDebit {
		t.Fatalf("direction = %v, want debit", args[3])
	}
}

func TestDeductInsufficientBalance(t *testing.T) {
	sql := &stubExecutor{row: fakeRow{err: pgx.ErrNoRows}}
	ledger := NewLedger(sql, zerolog.Nop())

	if ledger.Deduct(context.Background(), "u1", "req-1", 5, "image_generation") {
		t.Fatalf("deduct should fail when the conditional update matches nothing")
	}
	if len(sql.execs) != 0 {
		t.Fatalf("no ledger entry expected, got %d", len(sql.execs))
	}
}

func TestDeductZeroAmountIsFree(t *testing.T) {
	sql := &stubExecutor{row: fakeRow{err: pgx.ErrNoRows}}
	ledger := NewLedger(sql, zerolog.Nop())

	if !ledger.Deduct(context.Background(), "u1", "req-1", 0, "image_generation") {
		t.Fatalf("zero amount deduct should succeed without touching the database")
	}
	if len(sql.execs) != 0 {
		t.Fatalf("no ledger entry expected, got %d", len(sql.execs))
	}
}

func TestRefundWritesCreditEntry(t *testing.T) {
	sql := &stubExecutor{row: fakeRow{balance: 100}}
	ledger := NewLedger(sql, zerolog.Nop())

	ledger.Refund(context.Background(), "u1", "req-1", 5, "generation_failed")
	if len(sql.execs) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(sql.execs))
	}
	if sql.execs[0][3] != directionCredit {
		t.Fatalf("direction = %v, want credit", sql.execs[0][3])
	}
}

func TestRefundFailureIsSwallowed(t *testing.T) {
	sql := &stubExecutor{row: fakeRow{err: errors.New("connection reset")}}
	ledger := NewLedger(sql, zerolog.Nop())

	ledger.Refund(context.Background(), "u1", "req-1", 5, "generation_failed")
	if len(sql.execs) != 0 {
		t.Fatalf("no ledger entry expected after failed refund, got %d", len(sql.execs))
	}
}
