package bookings

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorKindMatching(t *testing.T) {
	err := NewError(KindSlotFull, "no seats left in Sat 10:00")

	assert.True(t, errors.Is(err, ErrSlotFull))
	assert.False(t, errors.Is(err, ErrSlotClosed))

	// Matching survives wrapping.
	wrapped := fmt.Errorf("allocate: %w", err)
	assert.True(t, errors.Is(wrapped, ErrSlotFull))
	assert.Equal(t, KindSlotFull, KindOf(wrapped))
}

func TestKindOfUnclassifiedError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("connection refused")))
}

func TestWrapInternalPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := WrapInternal("booking could not be completed", cause)

	assert.Equal(t, KindInternal, KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "booking could not be completed")
}

func TestClassifyUniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		wantKind   Kind
	}{
		{"uniq_participant_event", KindAlreadyRegistered},
		{"uniq_booking_slot_roll", KindAlreadyRegistered},
		{"idx_payment_records_payment_ref", KindPaymentAlreadyUsed},
	}

	for _, tt := range tests {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint}
		kindErr, ok := classifyUniqueViolation(fmt.Errorf("tx: %w", pgErr))
		assert.True(t, ok, tt.constraint)
		assert.Equal(t, tt.wantKind, kindErr.Kind, tt.constraint)
	}

	// Unique violations on unknown constraints stay unclassified.
	_, ok := classifyUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.False(t, ok)

	// Other Postgres errors are not unique violations.
	_, ok = classifyUniqueViolation(&pgconn.PgError{Code: "40001"})
	assert.False(t, ok)
	_, ok = classifyUniqueViolation(errors.New("some error"))
	assert.False(t, ok)
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, IsRetryableTxError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryableTxError(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsRetryableTxError(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"})))

	assert.False(t, IsRetryableTxError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryableTxError(errors.New("some error")))
	assert.False(t, IsRetryableTxError(nil))
}
