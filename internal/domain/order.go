package domain

// Order represents one resting or transient intention to trade.
// Quantity is the remaining unfilled quantity; an order that reaches zero is
// removed from the book immediately and is never observed at zero by callers.
type Order struct {
	ParticipantID string
	Action        Action
	Price         float64 // informational for market orders
	Quantity      int64
	Sequence      uint64 // strictly increasing submission index, breaks price ties
}
