package domain

// DepthUpdate is a parsed depth-diff event. Bids and Asks carry
// [price, quantity] pairs as decimal text; quantity "0" means the price
// level must be removed.
type DepthUpdate struct {
	Symbol        string
	EventTime     int64
	FirstUpdateId int64
	FinalUpdateId int64
	Bids          [][]string
	Asks          [][]string
}

func NewDepthUpdate(symbol string, bids [][]string, asks [][]string, firstUpdateId int64, finalUpdateId int64) *DepthUpdate {
	return &DepthUpdate{
		Symbol:        symbol,
		Bids:          bids,
		Asks:          asks,
		FirstUpdateId: firstUpdateId,
		FinalUpdateId: finalUpdateId,
	}
}

// TradeEvent is a parsed aggregate-trade event.
type TradeEvent struct {
	Symbol       string
	AggregateId  int64
	Price        string
	Quantity     string
	TradeTime    int64
	IsBuyerMaker bool
}

type TradeSide string

const (
	TradeSide_Buy  TradeSide = "buy"
	TradeSide_Sell TradeSide = "sell"
)

// Side derives the displayed side from the maker flag: when the buyer is
// the maker the aggressor sold.
func (t *TradeEvent) Side() TradeSide {
	if t.IsBuyerMaker {
		return TradeSide_Sell
	}
	return TradeSide_Buy
}
