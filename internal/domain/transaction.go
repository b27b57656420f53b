package domain

// Transaction records one fill between a buyer and a seller. Quantity is
// always > 0 and equals the amount removed from both matched legs.
type Transaction struct {
	BuyerID  string
	SellerID string
	Price    float64
	Quantity int64
}

// Notional returns price × quantity.
func (t Transaction) Notional() float64 {
	return t.Price * float64(t.Quantity)
}
