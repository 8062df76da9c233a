package domain

import (
	"strconv"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// TradeRecord is one display-facing row of the tape. Flash marks a
// freshly arrived trade and is cleared exactly once, flashTTL after
// insertion.
type TradeRecord struct {
	Id     int64     `json:"id"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	Time   int64     `json:"time"`
	Side   TradeSide `json:"side"`
	Flash  bool      `json:"flash"`
}

type flashEntry struct {
	id       int64
	expireAt time.Time
}

// TradeTape keeps the most recent trades of a single symbol, newest
// first, capped at maxLen. Flash expiry runs off one time-ordered queue
// drained by a single timer instead of one timer per record, so tape
// throughput does not multiply armed timers.
type TradeTape struct {
	maxLen   int
	flashTTL time.Duration

	mu      sync.Mutex
	symbol  string
	trades  deque.Deque[*TradeRecord]
	flashQ  deque.Deque[flashEntry]
	timer   *time.Timer
	stopped bool
}

func NewTradeTape(maxLen int, flashTTL time.Duration) *TradeTape {
	return &TradeTape{
		maxLen:   maxLen,
		flashTTL: flashTTL,
	}
}

// ApplyTrade prepends a record for the event and arms its flash expiry.
// An event for a different symbol than the tracked one clears the tape
// first (fallback for events that outrun an instrument switch).
func (t *TradeTape) ApplyTrade(event *TradeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	if event.Symbol != t.symbol {
		t.clearLocked()
		t.symbol = event.Symbol
	}

	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		return
	}
	amount, err := strconv.ParseFloat(event.Quantity, 64)
	if err != nil {
		return
	}

	t.trades.PushFront(&TradeRecord{
		Id:     event.AggregateId,
		Price:  price,
		Amount: amount,
		Time:   event.TradeTime,
		Side:   event.Side(),
		Flash:  true,
	})

	for t.trades.Len() > t.maxLen {
		t.trades.PopBack()
	}

	// flashTTL is fixed, so expiries are pushed in order and the front
	// of the queue is always the next one due.
	t.flashQ.PushBack(flashEntry{id: event.AggregateId, expireAt: time.Now().Add(t.flashTTL)})
	t.scheduleLocked()
}

// Reset clears the tape and adopts the given symbol. Called at the
// pair-selection boundary.
func (t *TradeTape) Reset(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearLocked()
	t.symbol = symbol
}

// Stop retires the tape, cancelling the pending flash timer so a late
// fire cannot touch records of a no-longer-active instrument.
func (t *TradeTape) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.clearLocked()
}

func (t *TradeTape) Symbol() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.symbol
}

// Trades returns a newest-first copy of the tape.
func (t *TradeTape) Trades() []TradeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TradeRecord, t.trades.Len())
	for i := 0; i < t.trades.Len(); i++ {
		out[i] = *t.trades.At(i)
	}
	return out
}

func (t *TradeTape) clearLocked() {
	t.trades.Clear()
	t.flashQ.Clear()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *TradeTape) scheduleLocked() {
	if t.timer != nil || t.flashQ.Len() == 0 || t.stopped {
		return
	}

	d := time.Until(t.flashQ.Front().expireAt)
	if d < 0 {
		d = 0
	}
	t.timer = time.AfterFunc(d, t.expireFlashes)
}

func (t *TradeTape) expireFlashes() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	t.timer = nil
	now := time.Now()

	for t.flashQ.Len() > 0 && !t.flashQ.Front().expireAt.After(now) {
		entry := t.flashQ.PopFront()

		// the record may have been truncated off the tape already
		for i := 0; i < t.trades.Len(); i++ {
			if rec := t.trades.At(i); rec.Id == entry.id {
				rec.Flash = false
				break
			}
		}
	}

	t.scheduleLocked()
}
