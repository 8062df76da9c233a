package domain

import (
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/spooky-finn/go-binance-marketview/config"
)

// BookLevel is one row of the ranked view. Total is the cumulative
// amount from the best price out to this row.
type BookLevel struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
	Total  float64 `json:"total"`
}

type Spread struct {
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// BookView is a read-only projection of the order book. MaxBidTotal and
// MaxAskTotal let consumers size depth bars without rescanning the rows.
type BookView struct {
	Symbol      string      `json:"symbol"`
	Bids        []BookLevel `json:"bids"`
	Asks        []BookLevel `json:"asks"`
	Spread      *Spread     `json:"spread"`
	MaxBidTotal float64     `json:"maxBidTotal"`
	MaxAskTotal float64     `json:"maxAskTotal"`
}

// OrderBook holds per-side price -> quantity state for a single symbol,
// keyed by the exact decimal text of the price so that levels are never
// matched through float comparison.
//
// Invariant: a stored price always maps to a strictly positive quantity.
// A zero quantity in an update is a deletion sentinel, not a level.
type OrderBook struct {
	symbol        string
	bids          map[string]string
	asks          map[string]string
	lastUpdateId  int64
	lastEventTime int64
	updateMx      *sync.Mutex
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:     make(map[string]string),
		asks:     make(map[string]string),
		updateMx: &sync.Mutex{},
	}
}

// ApplyUpdate folds one depth-diff event into the side state. If the
// event belongs to a different symbol than the one currently tracked,
// both sides are cleared first and the new symbol is adopted.
//
// FirstUpdateId/FinalUpdateId are recorded but not sequence-checked: the
// depth stream is treated as self-sufficient and gaps are tolerated.
func (ob *OrderBook) ApplyUpdate(update *DepthUpdate) {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()

	if update.Symbol != ob.symbol {
		if config.DebugMode && ob.symbol != "" {
			log.Printf("orderbook: symbol changed %s -> %s, resetting sides", ob.symbol, update.Symbol)
		}
		ob.bids = make(map[string]string)
		ob.asks = make(map[string]string)
		ob.symbol = update.Symbol
	}

	applyChanges(ob.bids, update.Bids)
	applyChanges(ob.asks, update.Asks)

	ob.lastUpdateId = update.FinalUpdateId
	ob.lastEventTime = update.EventTime
}

// Reset clears both sides and adopts the given symbol. Called at the
// pair-selection boundary; the symbol check in ApplyUpdate remains as a
// fallback for events that outrun the switch.
func (ob *OrderBook) Reset(symbol string) {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()

	ob.symbol = symbol
	ob.bids = make(map[string]string)
	ob.asks = make(map[string]string)
	ob.lastUpdateId = 0
	ob.lastEventTime = 0
}

func (ob *OrderBook) Symbol() string {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()
	return ob.symbol
}

// View recomputes the ranked projection from the side state: bids sorted
// descending, asks ascending, truncated to limit rows, with running
// totals and the current spread. Recomputing in full per call is fine at
// the feed cadence since retained level counts stay small.
func (ob *OrderBook) View(limit int) *BookView {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()

	bids := rankSide(ob.bids, true, limit)
	asks := rankSide(ob.asks, false, limit)

	view := &BookView{
		Symbol: ob.symbol,
		Bids:   bids,
		Asks:   asks,
	}

	if len(bids) > 0 {
		view.MaxBidTotal = bids[len(bids)-1].Total
	}
	if len(asks) > 0 {
		view.MaxAskTotal = asks[len(asks)-1].Total
	}

	if len(bids) > 0 && len(asks) > 0 {
		bestBid := bids[0].Price
		bestAsk := asks[0].Price
		value := bestAsk - bestBid
		view.Spread = &Spread{
			Value:   value,
			Percent: value / bestAsk * 100,
		}
	}

	return view
}

func applyChanges(side map[string]string, changes [][]string) {
	for _, change := range changes {
		if len(change) < 2 {
			continue
		}
		price, quantity := change[0], change[1]

		qty, err := strconv.ParseFloat(quantity, 64)
		if err != nil {
			continue
		}

		if qty <= 0 {
			// removal sentinel; no-op when the level was never stored
			delete(side, price)
		} else {
			side[price] = quantity
		}
	}
}

func rankSide(side map[string]string, descending bool, limit int) []BookLevel {
	levels := make([]BookLevel, 0, len(side))

	for price, quantity := range side {
		p, err := strconv.ParseFloat(price, 64)
		if err != nil {
			continue
		}
		q, err := strconv.ParseFloat(quantity, 64)
		if err != nil {
			continue
		}
		levels = append(levels, BookLevel{Price: p, Amount: q})
	}

	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})

	if limit > 0 && len(levels) > limit {
		levels = levels[:limit]
	}

	total := 0.0
	for i := range levels {
		total += levels[i].Amount
		levels[i].Total = total
	}

	return levels
}
