package domain

// Account tracks one participant's cash, signed position, and the cash
// notionally pinned against an open short. Accounts are created once at
// simulation start and mutated only by the ledger.
type Account struct {
	ParticipantID string
	Cash          float64
	Position      int64   // negative = short
	ReservedCash  float64 // notional pinned against an open short position
	AvgOpenPrice  float64 // volume-weighted open price of the current position
}

// Wealth returns cash plus the position marked at lastPrice.
func (a *Account) Wealth(lastPrice float64) float64 {
	return a.Cash + float64(a.Position)*lastPrice
}

// Bankrupt reports whether the account's wealth at lastPrice is non-positive.
func (a *Account) Bankrupt(lastPrice float64) bool {
	return a.Wealth(lastPrice) <= 0
}

// AvailableCash returns cash not pinned against an open short. Decision logic
// uses this figure for buying-power checks; the ledger only maintains it.
func (a *Account) AvailableCash() float64 {
	return a.Cash - a.ReservedCash
}
