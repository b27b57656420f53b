package domain

import "errors"

// Sentinel errors for domain-level error handling. Invalid-input errors are
// reported at the call site and never propagate past it; ErrDegeneratePrice
// signals an unrecoverable book or ledger state and aborts the run.
var (
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidAction      = errors.New("invalid_action")
	ErrInvalidSide        = errors.New("invalid_side")
	ErrUnknownParticipant = errors.New("unknown_participant")
	ErrParticipantExists  = errors.New("participant_already_exists")
	ErrDegeneratePrice    = errors.New("degenerate_price")
)
