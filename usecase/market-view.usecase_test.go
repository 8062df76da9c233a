package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/spooky-finn/go-binance-marketview/config"
	"github.com/spooky-finn/go-binance-marketview/domain"
	"github.com/spooky-finn/go-binance-marketview/provider/binance"
	"github.com/stretchr/testify/assert"
)

type fakeFeed struct {
	tradeCh chan *domain.TradeEvent
	depthCh chan *domain.DepthUpdate

	mu     sync.Mutex
	opened []*domain.MarketSymbol
	closed bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		tradeCh: make(chan *domain.TradeEvent, 16),
		depthCh: make(chan *domain.DepthUpdate, 16),
	}
}

func (f *fakeFeed) Open(symbol *domain.MarketSymbol) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, symbol)
}

func (f *fakeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeFeed) Trades() <-chan *domain.TradeEvent { return f.tradeCh }
func (f *fakeFeed) DepthUpdates() <-chan *domain.DepthUpdate { return f.depthCh }

func (f *fakeFeed) Status() binance.Status {
	return binance.Status{Connected: true, State: binance.ConnState_Open}
}

func viewConf() *config.Config {
	return &config.Config{
		BookDepthLimit: 20,
		TradeTapeSize:  50,
		FlashDuration:  time.Hour,
	}
}

func TestMarketView_PipelinesAreIndependent(t *testing.T) {
	feed := newFakeFeed()
	view := NewMarketViewUseCase(viewConf(), feed)
	view.Start()
	defer view.Stop()

	// arbitrary interleaving of the two streams
	feed.depthCh <- &domain.DepthUpdate{
		Symbol: "BTCUSDT",
		Bids:   [][]string{{"100.00", "1"}},
		Asks:   [][]string{{"100.10", "2"}},
	}
	feed.tradeCh <- &domain.TradeEvent{
		Symbol:      "BTCUSDT",
		AggregateId: 7,
		Price:       "100.05",
		Quantity:    "0.25",
		TradeTime:   1700000000000,
	}

	assert.Eventually(t, func() bool {
		book := view.OrderBook()
		return len(book.Bids) == 1 && len(book.Asks) == 1 && book.Spread != nil
	}, 2*time.Second, 5*time.Millisecond, "Depth pipeline should feed the book")

	assert.Eventually(t, func() bool {
		trades := view.Trades()
		return len(trades) == 1 && trades[0].Id == 7
	}, 2*time.Second, 5*time.Millisecond, "Trade pipeline should feed the tape")
}

func TestMarketView_SelectPairResetsStateAndReopensFeed(t *testing.T) {
	feed := newFakeFeed()
	view := NewMarketViewUseCase(viewConf(), feed)
	view.Start()
	defer view.Stop()

	btc, _ := domain.NewMarketSymbol("BTC", "USDT")
	eth, _ := domain.NewMarketSymbol("ETH", "USDT")

	view.SelectPair(btc)
	feed.depthCh <- &domain.DepthUpdate{Symbol: "BTCUSDT", Bids: [][]string{{"100.00", "1"}}}
	feed.tradeCh <- &domain.TradeEvent{Symbol: "BTCUSDT", AggregateId: 1, Price: "100.00", Quantity: "1", TradeTime: 1}

	assert.Eventually(t, func() bool {
		return len(view.OrderBook().Bids) == 1 && len(view.Trades()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	view.SelectPair(eth)

	book := view.OrderBook()
	assert.Equal(t, "ETHUSDT", book.Symbol, "Book should adopt the new pair at the selection boundary")
	assert.Empty(t, book.Bids, "Old bids should be gone without waiting for new data")
	assert.Empty(t, view.Trades(), "Tape should be cleared")

	feed.mu.Lock()
	defer feed.mu.Unlock()
	assert.Len(t, feed.opened, 2, "Feed should have been reopened per selection")
}

func TestMarketView_StopClosesFeed(t *testing.T) {
	feed := newFakeFeed()
	view := NewMarketViewUseCase(viewConf(), feed)
	view.Start()

	view.Stop()

	feed.mu.Lock()
	defer feed.mu.Unlock()
	assert.True(t, feed.closed, "Stop should tear the feed down")
}
