package engine

import "github.com/efreitasn/marketsim/internal/domain"

// ExecuteOrders runs one matching pass and returns the resulting
// transactions in execution order (empty if none). The pass has two phases:
//
//  1. Market sweep: each queued market order, oldest first, walks the
//     opposite side from its best price outward. Resting orders owned by the
//     submitting participant are skipped, never traded. The trade price is
//     the resting order's price. Unfilled remainder is discarded; market
//     orders never rest.
//  2. Continuous cross: while the best bid price is >= the best ask price,
//     the two head orders trade min(remaining quantities) at the price of
//     whichever order has the smaller sequence number (the one resting
//     longer sets the price).
//
// Orders whose quantity reaches zero are removed inside the pass, so no
// order ever rests at zero and the book is never left crossed.
func (ob *OrderBook) ExecuteOrders() []domain.Transaction {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var txs []domain.Transaction
	for len(ob.market) > 0 {
		order := ob.market[0]
		ob.market = ob.market[1:]
		txs = append(txs, ob.sweep(order)...)
	}
	txs = append(txs, ob.cross()...)
	return txs
}

// sweep fills one market order against the opposite side, best price first.
func (ob *OrderBook) sweep(order *domain.Order) []domain.Transaction {
	opposite := ob.asks
	if order.Action.Side() == domain.OrderSideAsk {
		opposite = ob.bids
	}

	var txs []domain.Transaction
	var filled []BookEntry
	opposite.Ascend(func(e BookEntry) bool {
		resting := e.Order
		if resting.ParticipantID == order.ParticipantID {
			// Self-trades are never executed; keep walking outward.
			return true
		}
		qty := order.Quantity
		if resting.Quantity < qty {
			qty = resting.Quantity
		}
		order.Quantity -= qty
		resting.Quantity -= qty
		txs = append(txs, makeTransaction(order, resting, resting.Price, qty))
		if resting.Quantity == 0 {
			filled = append(filled, e)
		}
		return order.Quantity > 0
	})
	for _, e := range filled {
		opposite.Delete(e)
	}
	return txs
}

// cross matches the head bid against the head ask while the book is crossed.
func (ob *OrderBook) cross() []domain.Transaction {
	var txs []domain.Transaction
	for {
		bid, okBid := ob.bids.Min()
		ask, okAsk := ob.asks.Min()
		if !okBid || !okAsk || bid.Price < ask.Price {
			break
		}

		if bid.Order.ParticipantID == ask.Order.ParticipantID {
			// A participant quoting through its own resting order would
			// self-trade; the younger of the two quotes is dropped instead.
			if bid.Sequence > ask.Sequence {
				ob.bids.Delete(bid)
			} else {
				ob.asks.Delete(ask)
			}
			continue
		}

		// Time priority sets price: the longer-resting order's price wins.
		price := bid.Price
		if ask.Sequence < bid.Sequence {
			price = ask.Price
		}
		qty := bid.Order.Quantity
		if ask.Order.Quantity < qty {
			qty = ask.Order.Quantity
		}
		bid.Order.Quantity -= qty
		ask.Order.Quantity -= qty
		txs = append(txs, domain.Transaction{
			BuyerID:  bid.Order.ParticipantID,
			SellerID: ask.Order.ParticipantID,
			Price:    price,
			Quantity: qty,
		})
		if bid.Order.Quantity == 0 {
			ob.bids.Delete(bid)
		}
		if ask.Order.Quantity == 0 {
			ob.asks.Delete(ask)
		}
	}
	return txs
}

// makeTransaction attributes buyer and seller by side tag: the participant
// whose order carries the buy-side tag is the buyer, regardless of which leg
// initiated the match.
func makeTransaction(a, b *domain.Order, price float64, qty int64) domain.Transaction {
	tx := domain.Transaction{Price: price, Quantity: qty}
	if a.Action.Side() == domain.OrderSideBid {
		tx.BuyerID = a.ParticipantID
		tx.SellerID = b.ParticipantID
	} else {
		tx.BuyerID = b.ParticipantID
		tx.SellerID = a.ParticipantID
	}
	return tx
}
