package tokens

import (
	"context"

	"github.com/rs/zerolog"

	"kompis/server/internal/infra"
	"kompis/server/internal/sqlinline"
)

const (
	directionDebit  = "debit"
	directionCredit = "credit"
)

// Ledger mutates the user's token balance and keeps an audit trail of every
// debit and compensating refund. Balance updates are atomic single-row
// conditional updates, so no additional locking is needed here.
type Ledger struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func NewLedger(sql infra.SQLExecutor, logger zerolog.Logger) *Ledger {
	return &Ledger{sql: sql, logger: logger}
}

// Deduct withdraws amount from the user's balance. It reports false when the
// balance is insufficient or the update fails; no ledger row is written then.
func (l *Ledger) Deduct(ctx context.Context, userID, requestID string, amount int, reason string) bool {
	if amount <= 0 {
		return true
	}
	row := l.sql.QueryRow(ctx, sqlinline.QDeductTokens, userID, amount)
	var balance int
	if err := row.Scan(&balance); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Int("amount", amount).Msg("token deduct rejected")
		return false
	}
	l.record(ctx, userID, requestID, amount, directionDebit, reason)
	l.logger.Debug().Str("user_id", userID).Int("amount", amount).Int("balance", balance).Msg("tokens deducted")
	return true
}

// Refund returns amount to the user's balance. Refund failures are logged but
// not surfaced; the caller has already decided the request outcome.
func (l *Ledger) Refund(ctx context.Context, userID, requestID string, amount int, reason string) {
	if amount <= 0 {
		return
	}
	row := l.sql.QueryRow(ctx, sqlinline.QRefundTokens, userID, amount)
	var balance int
	if err := row.Scan(&balance); err != nil {
		l.logger.Error().Err(err).Str("user_id", userID).Int("amount", amount).Msg("token refund failed")
		return
	}
	l.record(ctx, userID, requestID, amount, directionCredit, reason)
	l.logger.Info().Str("user_id", userID).Str("request_id", requestID).Int("amount", amount).Msg("tokens refunded")
}

func (l *Ledger) record(ctx context.Context, userID, requestID string, amount int, direction, reason string) {
	if _, err := l.sql.Exec(ctx, sqlinline.QInsertLedgerEntry, userID, requestID, amount, direction, reason); err != nil {
		l.logger.Error().Err(err).Str("user_id", userID).Str("direction", direction).Msg("ledger entry failed")
	}
}
