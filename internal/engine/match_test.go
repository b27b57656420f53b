package engine

import (
	"testing"

	"github.com/efreitasn/marketsim/internal/domain"
)

func TestExecuteOrders_EmptyBook(t *testing.T) {
	ob := NewOrderBook()
	txs := ob.ExecuteOrders()
	if len(txs) != 0 {
		t.Errorf("expected 0 transactions, got %d", len(txs))
	}
}

func TestExecuteOrders_Idempotent(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("buyer", domain.ActionLimitBuy, 99.0, 5)
	ob.PlaceOrder("seller", domain.ActionLimitSell, 101.0, 5)

	if txs := ob.ExecuteOrders(); len(txs) != 0 {
		t.Fatalf("expected 0 transactions on an uncrossed book, got %d", len(txs))
	}
	// Second pass over the same state still does nothing.
	if txs := ob.ExecuteOrders(); len(txs) != 0 {
		t.Errorf("expected 0 transactions on repeat pass, got %d", len(txs))
	}
	if ob.BidCount() != 1 || ob.AskCount() != 1 {
		t.Errorf("book changed: bids=%d asks=%d", ob.BidCount(), ob.AskCount())
	}
}

func TestExecuteOrders_MarketBuy_SweepsBestPriceFirst(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("s1", domain.ActionLimitSell, 101.0, 5)
	ob.PlaceOrder("s2", domain.ActionLimitSell, 100.5, 5)
	ob.PlaceOrder("buyer", domain.ActionMarketBuy, 0, 3)

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Price != 100.5 {
		t.Errorf("expected trade at best ask 100.5, got %v", txs[0].Price)
	}
	if txs[0].Quantity != 3 {
		t.Errorf("expected qty 3, got %d", txs[0].Quantity)
	}
	if txs[0].BuyerID != "buyer" || txs[0].SellerID != "s2" {
		t.Errorf("attribution wrong: buyer=%s seller=%s", txs[0].BuyerID, txs[0].SellerID)
	}

	// 100.5 keeps 2, 101.0 untouched.
	best, _ := ob.BestAsk()
	if best.Price != 100.5 || best.Order.Quantity != 2 {
		t.Errorf("expected best ask 100.5 qty 2, got %v qty %d", best.Price, best.Order.Quantity)
	}
	if ob.AskCount() != 2 {
		t.Errorf("expected 2 asks remaining, got %d", ob.AskCount())
	}
}

func TestExecuteOrders_MarketBuy_WalksMultipleLevels(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("s1", domain.ActionLimitSell, 100.0, 3)
	ob.PlaceOrder("s2", domain.ActionLimitSell, 101.0, 4)
	ob.PlaceOrder("buyer", domain.ActionMarketBuy, 0, 5)

	txs := ob.ExecuteOrders()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Price != 100.0 || txs[0].Quantity != 3 {
		t.Errorf("tx 0: got price=%v qty=%d, want 100.0/3", txs[0].Price, txs[0].Quantity)
	}
	if txs[1].Price != 101.0 || txs[1].Quantity != 2 {
		t.Errorf("tx 1: got price=%v qty=%d, want 101.0/2", txs[1].Price, txs[1].Quantity)
	}

	// s2 keeps 2 on the book; s1 is fully filled and removed.
	if ob.AskCount() != 1 {
		t.Fatalf("expected 1 ask remaining, got %d", ob.AskCount())
	}
	best, _ := ob.BestAsk()
	if best.Order.Quantity != 2 {
		t.Errorf("expected remainder 2, got %d", best.Order.Quantity)
	}
}

func TestExecuteOrders_MarketSell_SweepsBids(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("b1", domain.ActionLimitBuy, 99.0, 5)
	ob.PlaceOrder("b2", domain.ActionLimitBuy, 100.0, 5)
	ob.PlaceOrder("seller", domain.ActionMarketSell, 0, 4)

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Price != 100.0 {
		t.Errorf("expected trade at best bid 100.0, got %v", txs[0].Price)
	}
	if txs[0].BuyerID != "b2" || txs[0].SellerID != "seller" {
		t.Errorf("attribution wrong: buyer=%s seller=%s", txs[0].BuyerID, txs[0].SellerID)
	}
}

func TestExecuteOrders_MarketOrder_RemainderDiscarded(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("s1", domain.ActionLimitSell, 100.0, 3)
	ob.PlaceOrder("buyer", domain.ActionMarketBuy, 0, 10)

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Quantity != 3 {
		t.Errorf("expected fill qty 3, got %d", txs[0].Quantity)
	}
	if ob.MarketCount() != 0 {
		t.Errorf("market remainder must be discarded, got %d queued", ob.MarketCount())
	}
	if ob.BidCount() != 0 {
		t.Errorf("market orders must never rest, got %d bids", ob.BidCount())
	}
}

func TestExecuteOrders_MarketOrder_NoLiquidityDiscarded(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("buyer", domain.ActionMarketBuy, 0, 10)

	txs := ob.ExecuteOrders()
	if len(txs) != 0 {
		t.Errorf("expected 0 transactions, got %d", len(txs))
	}
	if ob.MarketCount() != 0 {
		t.Errorf("unfillable market order must be discarded, got %d queued", ob.MarketCount())
	}
}

func TestExecuteOrders_MarketOrder_SkipsOwnRestingOrders(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("t1", domain.ActionLimitSell, 100.0, 5) // t1's own ask, best price
	ob.PlaceOrder("t2", domain.ActionLimitSell, 101.0, 5)
	ob.PlaceOrder("t1", domain.ActionMarketBuy, 0, 3)

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	// t1's own ask is skipped; the fill comes from t2 at 101.0.
	if txs[0].Price != 101.0 || txs[0].SellerID != "t2" {
		t.Errorf("expected fill from t2 at 101.0, got seller=%s price=%v", txs[0].SellerID, txs[0].Price)
	}
	// t1's resting ask is untouched.
	best, _ := ob.BestAsk()
	if best.Order.ParticipantID != "t1" || best.Order.Quantity != 5 {
		t.Errorf("own resting ask must be untouched, got %s qty %d", best.Order.ParticipantID, best.Order.Quantity)
	}
}

func TestExecuteOrders_MarketQueue_FIFO(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("s1", domain.ActionLimitSell, 100.0, 3)
	ob.PlaceOrder("first", domain.ActionMarketBuy, 0, 2)
	ob.PlaceOrder("second", domain.ActionMarketBuy, 0, 2)

	txs := ob.ExecuteOrders()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// First market order fills 2, the second gets the remaining 1.
	if txs[0].BuyerID != "first" || txs[0].Quantity != 2 {
		t.Errorf("tx 0: got buyer=%s qty=%d, want first/2", txs[0].BuyerID, txs[0].Quantity)
	}
	if txs[1].BuyerID != "second" || txs[1].Quantity != 1 {
		t.Errorf("tx 1: got buyer=%s qty=%d, want second/1", txs[1].BuyerID, txs[1].Quantity)
	}
}

func TestExecuteOrders_Cross_RestingBidSetsPrice(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("buyer", domain.ActionLimitBuy, 102.0, 5)   // sequence 1
	ob.PlaceOrder("seller", domain.ActionLimitSell, 101.0, 3) // sequence 2

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	// The bid was resting first, so its price wins.
	if txs[0].Price != 102.0 {
		t.Errorf("expected trade at 102.0, got %v", txs[0].Price)
	}
	if txs[0].Quantity != 3 {
		t.Errorf("expected qty 3, got %d", txs[0].Quantity)
	}
	if txs[0].BuyerID != "buyer" || txs[0].SellerID != "seller" {
		t.Errorf("attribution wrong: buyer=%s seller=%s", txs[0].BuyerID, txs[0].SellerID)
	}

	// Bid remainder of 2 rests; ask is gone.
	if ob.AskCount() != 0 {
		t.Errorf("expected 0 asks, got %d", ob.AskCount())
	}
	best, _ := ob.BestBid()
	if best.Order.Quantity != 2 {
		t.Errorf("expected bid remainder 2, got %d", best.Order.Quantity)
	}
}

func TestExecuteOrders_Cross_RestingAskSetsPrice(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("seller", domain.ActionLimitSell, 101.0, 5) // sequence 1
	ob.PlaceOrder("buyer", domain.ActionLimitBuy, 102.0, 5)   // sequence 2

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Price != 101.0 {
		t.Errorf("expected trade at 101.0, got %v", txs[0].Price)
	}
	if ob.BidCount() != 0 || ob.AskCount() != 0 {
		t.Errorf("expected empty book, got bids=%d asks=%d", ob.BidCount(), ob.AskCount())
	}
}

func TestExecuteOrders_Cross_EqualPrices(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("buyer", domain.ActionLimitBuy, 100.0, 5)
	ob.PlaceOrder("seller", domain.ActionLimitSell, 100.0, 5)

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Price != 100.0 || txs[0].Quantity != 5 {
		t.Errorf("got price=%v qty=%d, want 100.0/5", txs[0].Price, txs[0].Quantity)
	}
}

func TestExecuteOrders_Cross_CascadesThroughLevels(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("b1", domain.ActionLimitBuy, 103.0, 2)
	ob.PlaceOrder("b2", domain.ActionLimitBuy, 102.0, 2)
	ob.PlaceOrder("s1", domain.ActionLimitSell, 101.0, 5)

	txs := ob.ExecuteOrders()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// Both bids rested before the ask arrived, so bid prices win.
	if txs[0].Price != 103.0 || txs[0].Quantity != 2 {
		t.Errorf("tx 0: got price=%v qty=%d, want 103.0/2", txs[0].Price, txs[0].Quantity)
	}
	if txs[1].Price != 102.0 || txs[1].Quantity != 2 {
		t.Errorf("tx 1: got price=%v qty=%d, want 102.0/2", txs[1].Price, txs[1].Quantity)
	}
	// Ask remainder of 1 rests; the book is no longer crossed.
	best, ok := ob.BestAsk()
	if !ok || best.Order.Quantity != 1 {
		t.Fatalf("expected ask remainder 1, got ok=%v", ok)
	}
	if ob.BidCount() != 0 {
		t.Errorf("expected 0 bids, got %d", ob.BidCount())
	}
}

func TestExecuteOrders_Cross_SelfCrossDropsYoungerQuote(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("t1", domain.ActionLimitBuy, 102.0, 5)  // sequence 1, kept
	ob.PlaceOrder("t1", domain.ActionLimitSell, 101.0, 5) // sequence 2, dropped

	txs := ob.ExecuteOrders()
	if len(txs) != 0 {
		t.Fatalf("self-cross must not trade, got %d transactions", len(txs))
	}
	if ob.AskCount() != 0 {
		t.Errorf("expected younger ask dropped, got %d asks", ob.AskCount())
	}
	if ob.BidCount() != 1 {
		t.Errorf("expected older bid kept, got %d bids", ob.BidCount())
	}
}

func TestExecuteOrders_Cross_SelfCrossUnblocksRealMatch(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("t1", domain.ActionLimitSell, 101.0, 5) // sequence 1, t1's own ask
	ob.PlaceOrder("t1", domain.ActionLimitBuy, 102.0, 5)  // sequence 2, dropped as younger
	ob.PlaceOrder("t2", domain.ActionLimitBuy, 101.5, 3)  // sequence 3, real counterparty

	txs := ob.ExecuteOrders()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction after self-cross resolution, got %d", len(txs))
	}
	// t1's ask rested first, so its price wins against t2's bid.
	if txs[0].Price != 101.0 {
		t.Errorf("expected trade at 101.0, got %v", txs[0].Price)
	}
	if txs[0].BuyerID != "t2" || txs[0].SellerID != "t1" {
		t.Errorf("attribution wrong: buyer=%s seller=%s", txs[0].BuyerID, txs[0].SellerID)
	}
}

func TestExecuteOrders_MarketThenCross_SingleCall(t *testing.T) {
	ob := NewOrderBook()
	ob.PlaceOrder("s1", domain.ActionLimitSell, 100.0, 2)
	ob.PlaceOrder("mbuyer", domain.ActionMarketBuy, 0, 2)
	ob.PlaceOrder("b1", domain.ActionLimitBuy, 103.0, 3)
	ob.PlaceOrder("s2", domain.ActionLimitSell, 102.0, 3)

	txs := ob.ExecuteOrders()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// Market sweep runs first and takes the 100.0 ask.
	if txs[0].BuyerID != "mbuyer" || txs[0].Price != 100.0 {
		t.Errorf("tx 0: got buyer=%s price=%v, want mbuyer/100.0", txs[0].BuyerID, txs[0].Price)
	}
	// Then the crossed limits trade at the longer-resting bid's price.
	if txs[1].BuyerID != "b1" || txs[1].Price != 103.0 {
		t.Errorf("tx 1: got buyer=%s price=%v, want b1/103.0", txs[1].BuyerID, txs[1].Price)
	}
	if ob.BidCount() != 0 || ob.AskCount() != 0 || ob.MarketCount() != 0 {
		t.Errorf("expected empty book, got bids=%d asks=%d market=%d",
			ob.BidCount(), ob.AskCount(), ob.MarketCount())
	}
}
