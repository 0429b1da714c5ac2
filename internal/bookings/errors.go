package bookings

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies every failure the allocator can return. The API layer
// maps kinds to HTTP statuses; callers never see a raw storage error.
type Kind string

const (
	KindInvalidArgument    Kind = "InvalidArgument"
	KindNotFound           Kind = "NotFound"
	KindSlotClosed         Kind = "SlotClosed"
	KindSlotFull           Kind = "SlotFull"
	KindAlreadyRegistered  Kind = "AlreadyRegistered"
	KindPaymentAlreadyUsed Kind = "PaymentAlreadyUsed"
	KindInternal           Kind = "Internal"
)

// Error is a typed booking failure. Two Errors match under errors.Is
// when their kinds are equal, so sentinel comparisons work regardless of
// the message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// NewError creates a typed booking error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapInternal wraps a storage or transaction failure as an internal error.
func WrapInternal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// Sentinel values for errors.Is matching.
var (
	ErrInvalidArgument    = NewError(KindInvalidArgument, "invalid argument")
	ErrNotFound           = NewError(KindNotFound, "not found")
	ErrSlotClosed         = NewError(KindSlotClosed, "slot is closed")
	ErrSlotFull           = NewError(KindSlotFull, "slot is full")
	ErrAlreadyRegistered  = NewError(KindAlreadyRegistered, "already registered")
	ErrPaymentAlreadyUsed = NewError(KindPaymentAlreadyUsed, "payment reference already used")
	ErrInternal           = NewError(KindInternal, "internal error")
)

// asBookingError extracts a typed *Error from err, if one is present
// anywhere in its chain.
func asBookingError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// KindOf extracts the failure kind from any error returned by this
// package. Unclassified errors report as Internal.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// IsRetryableTxError reports whether err is a transient transaction
// conflict worth retrying: Postgres serialization failure (40001) or
// deadlock detected (40P01).
func IsRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// classifyUniqueViolation maps a Postgres unique violation (23505) to
// the business kind its constraint backs. The in-transaction Count
// guards run under the slot row lock, so two attempts on different
// slots of one event can both pass them; the loser then hits the
// backing index and must report the same kind the guard would have.
func classifyUniqueViolation(err error) (*Error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil, false
	}

	switch pgErr.ConstraintName {
	case "uniq_participant_event":
		return NewError(KindAlreadyRegistered, "participant already registered for this event"), true
	case "uniq_booking_slot_roll":
		return NewError(KindAlreadyRegistered, "participant already registered for this slot"), true
	case "idx_payment_records_payment_ref":
		return NewError(KindPaymentAlreadyUsed, "payment reference already used"), true
	default:
		return nil, false
	}
}
