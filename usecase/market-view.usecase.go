package usecase

import (
	"github.com/spooky-finn/go-binance-marketview/config"
	"github.com/spooky-finn/go-binance-marketview/domain"
	"github.com/spooky-finn/go-binance-marketview/provider/binance"
)

// MarketFeed is the upstream surface the view consumes: two independent
// event streams plus connectivity.
type MarketFeed interface {
	Open(symbol *domain.MarketSymbol)
	Close()
	Trades() <-chan *domain.TradeEvent
	DepthUpdates() <-chan *domain.DepthUpdate
	Status() binance.Status
}

// MarketViewUseCase glues the feed to the order book and the trade tape.
// The two streams are independently clocked, so each gets its own
// pipeline goroutine; book and tape stay correct under arbitrary
// interleaving because neither depends on the other.
type MarketViewUseCase struct {
	conf *config.Config
	feed MarketFeed
	book *domain.OrderBook
	tape *domain.TradeTape
	done chan struct{}
}

func NewMarketViewUseCase(conf *config.Config, feed MarketFeed) *MarketViewUseCase {
	return &MarketViewUseCase{
		conf: conf,
		feed: feed,
		book: domain.NewOrderBook(),
		tape: domain.NewTradeTape(conf.TradeTapeSize, conf.FlashDuration),
		done: make(chan struct{}),
	}
}

func (u *MarketViewUseCase) Start() {
	go u.depthPipeline()
	go u.tradePipeline()
}

// SelectPair switches the active instrument: book and tape are reset at
// the selection boundary (the symbol check inside each remains as a
// fallback for stale in-flight events) and the feed reopens both
// channels under its switching protocol.
func (u *MarketViewUseCase) SelectPair(symbol *domain.MarketSymbol) {
	u.book.Reset(symbol.EventSymbol())
	u.tape.Reset(symbol.EventSymbol())
	u.feed.Open(symbol)
}

// OrderBook returns the current ranked view, recomputed from side state.
func (u *MarketViewUseCase) OrderBook() *domain.BookView {
	return u.book.View(u.conf.BookDepthLimit)
}

// Trades returns the current tape, newest first.
func (u *MarketViewUseCase) Trades() []domain.TradeRecord {
	return u.tape.Trades()
}

func (u *MarketViewUseCase) Status() binance.Status {
	return u.feed.Status()
}

// Stop retires the view: feed teardown cancels reconnect timers, tape
// teardown cancels flash timers.
func (u *MarketViewUseCase) Stop() {
	close(u.done)
	u.feed.Close()
	u.tape.Stop()
}

func (u *MarketViewUseCase) depthPipeline() {
	for {
		select {
		case <-u.done:
			return
		case update := <-u.feed.DepthUpdates():
			u.book.ApplyUpdate(update)
		}
	}
}

func (u *MarketViewUseCase) tradePipeline() {
	for {
		select {
		case <-u.done:
			return
		case event := <-u.feed.Trades():
			u.tape.ApplyTrade(event)
		}
	}
}
