package domain

// OrderSide indicates which side of the book an order belongs to.
type OrderSide string

const (
	OrderSideBid OrderSide = "bid"
	OrderSideAsk OrderSide = "ask"
)

// Action is the closed set of intentions a participant can submit.
// Buy/sell and market/limit are recoverable independently through Side and
// IsMarket, so no caller ever reasons about tag encodings.
type Action string

const (
	ActionMarketBuy  Action = "market_buy"
	ActionMarketSell Action = "market_sell"
	ActionLimitBuy   Action = "limit_buy"
	ActionLimitSell  Action = "limit_sell"
	ActionAbstain    Action = "abstain"
)

// Valid reports whether a is one of the five recognized action tags.
func (a Action) Valid() bool {
	switch a {
	case ActionMarketBuy, ActionMarketSell, ActionLimitBuy, ActionLimitSell, ActionAbstain:
		return true
	}
	return false
}

// IsMarket reports whether a is a market (immediate) action.
func (a Action) IsMarket() bool {
	return a == ActionMarketBuy || a == ActionMarketSell
}

// IsLimit reports whether a is a limit (resting) action.
func (a Action) IsLimit() bool {
	return a == ActionLimitBuy || a == ActionLimitSell
}

// Side returns the book side the action trades on. Abstain has no side and
// returns the empty string.
func (a Action) Side() OrderSide {
	switch a {
	case ActionMarketBuy, ActionLimitBuy:
		return OrderSideBid
	case ActionMarketSell, ActionLimitSell:
		return OrderSideAsk
	}
	return ""
}
