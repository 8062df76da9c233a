package binance

import (
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/spooky-finn/go-binance-marketview/config"
	"github.com/spooky-finn/go-binance-marketview/domain"
	promclient "github.com/spooky-finn/go-binance-marketview/infrastructure/prometheus"
)

type ChannelKind string

const (
	ChannelKind_Trade ChannelKind = "trade"
	ChannelKind_Depth ChannelKind = "depth"
)

type ConnState string

const (
	ConnState_Idle         ConnState = "idle"
	ConnState_Connecting   ConnState = "connecting"
	ConnState_Open         ConnState = "open"
	ConnState_Switching    ConnState = "switching"
	ConnState_Reconnecting ConnState = "reconnecting"
	ConnState_Failed       ConnState = "failed"
)

const eventChanBuffer = 1024

// Status is the connectivity view handed to consumers. Connected is the
// AND of both channel-open states, evaluated only outside a pair switch:
// while a switch is in flight the flag holds its previous value.
type Status struct {
	Connected bool      `json:"connected"`
	State     ConnState `json:"state"`
	Error     string    `json:"error,omitempty"`
}

type channelState struct {
	kind           ChannelKind
	conn           Stream
	open           bool
	attempts       int
	retry          *backoff.Backoff
	reconnectTimer *time.Timer
}

// ConnManager owns the two stream channels (aggTrade, depth diff) of the
// active pair. All transitions run through one explicit state machine so
// the switching/closing races are named instead of implied by flag
// combinations: an expected close during a switch never flips
// connectivity, an unexpected one schedules a capped reconnect.
type ConnManager struct {
	conf *config.Config

	mu        sync.Mutex
	state     ConnState
	connected bool
	symbol    *domain.MarketSymbol
	gen       int
	trade     *channelState
	depth     *channelState
	lastErr   string

	lastTrade *domain.TradeEvent
	lastDepth *domain.DepthUpdate

	tradeCh chan *domain.TradeEvent
	depthCh chan *domain.DepthUpdate

	// swapped out in tests
	dial func(url string) (Stream, error)
}

func NewConnManager(conf *config.Config) *ConnManager {
	return &ConnManager{
		conf:    conf,
		state:   ConnState_Idle,
		tradeCh: make(chan *domain.TradeEvent, eventChanBuffer),
		depthCh: make(chan *domain.DepthUpdate, eventChanBuffer),
		dial:    func(url string) (Stream, error) { return DialStream(url) },
	}
}

// Trades is the delivery channel of parsed trade events. Frames within
// it preserve arrival order; no ordering holds against DepthUpdates.
func (m *ConnManager) Trades() <-chan *domain.TradeEvent {
	return m.tradeCh
}

func (m *ConnManager) DepthUpdates() <-chan *domain.DepthUpdate {
	return m.depthCh
}

func (m *ConnManager) LastTrade() *domain.TradeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTrade
}

func (m *ConnManager) LastDepthUpdate() *domain.DepthUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDepth
}

func (m *ConnManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		Connected: m.connected,
		State:     m.state,
		Error:     m.lastErr,
	}
}

// Open establishes both stream channels for the given pair. When
// channels for a previous pair exist, they are retired under the
// switching state: their closes are expected and do not disturb
// connectivity. Connectivity comes back once both fresh channels report
// open.
func (m *ConnManager) Open(symbol *domain.MarketSymbol) {
	m.mu.Lock()

	// invalidate every callback and timer of the previous generation
	m.gen++
	gen := m.gen
	m.stopReconnectTimersLocked()

	if m.trade != nil || m.depth != nil {
		m.setStateLocked(ConnState_Switching)
		m.closeChannelsLocked()
	} else {
		m.setStateLocked(ConnState_Connecting)
	}

	m.symbol = symbol
	m.lastErr = ""
	m.trade = m.newChannelState(ChannelKind_Trade)
	m.depth = m.newChannelState(ChannelKind_Depth)
	m.mu.Unlock()

	logger.Printf("opening stream channels for %s", symbol.String())
	go m.dialChannel(gen, ChannelKind_Trade)
	go m.dialChannel(gen, ChannelKind_Depth)
}

// Close synchronously retires the active pair: both sockets are closed
// and pending reconnect timers cancelled, so nothing can resurrect a
// channel for a no-longer-active instrument.
func (m *ConnManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.stopReconnectTimersLocked()
	m.closeChannelsLocked()
	m.trade = nil
	m.depth = nil
	m.setStateLocked(ConnState_Idle)
	m.setConnectedLocked(false)
}

func (m *ConnManager) newChannelState(kind ChannelKind) *channelState {
	return &channelState{
		kind: kind,
		retry: &backoff.Backoff{
			Min:    m.conf.ReconnectDelay,
			Max:    m.conf.ReconnectDelay,
			Factor: 1,
		},
	}
}

func (m *ConnManager) channel(kind ChannelKind) *channelState {
	if kind == ChannelKind_Trade {
		return m.trade
	}
	return m.depth
}

func (m *ConnManager) topicURL(kind ChannelKind) string {
	if kind == ChannelKind_Trade {
		return fmt.Sprintf("%s/%s", m.conf.WsEndpoint, aggTradeTopic(m.symbol))
	}
	return fmt.Sprintf("%s/%s", m.conf.WsEndpoint, depthTopic(m.symbol, m.conf.DepthUpdateInterval))
}

func (m *ConnManager) dialChannel(gen int, kind ChannelKind) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	url := m.topicURL(kind)
	m.mu.Unlock()

	conn, err := m.dial(url)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		if err == nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		logger.Printf("failed to dial %s channel: %s", kind, err)
		m.lastErr = "connection error"
		m.scheduleReconnectLocked(kind)
		return
	}

	m.handleChannelOpen(kind, conn)

	go conn.ReadLoop(
		func(raw []byte) { m.onFrame(gen, kind, raw) },
		func(err error) { m.onTransportError(gen, err) },
		func() { m.onChannelClose(gen, kind) },
	)
}

// handleChannelOpen records a successful open. Connectivity flips true
// only once both channels are open; the retry budget of the channel is
// restored in full.
func (m *ConnManager) handleChannelOpen(kind ChannelKind, conn Stream) {
	ch := m.channel(kind)
	ch.conn = conn
	ch.open = true
	ch.attempts = 0
	ch.retry.Reset()

	if m.trade.open && m.depth.open {
		m.setStateLocked(ConnState_Open)
		m.setConnectedLocked(true)
		m.lastErr = ""
	}

	if config.DebugMode {
		logger.Printf("%s channel open (%s)", kind, conn.URL())
	}
}

func (m *ConnManager) onFrame(gen int, kind ChannelKind, raw []byte) {
	var tradeEvent *domain.TradeEvent
	var depthUpdate *domain.DepthUpdate
	var err error

	// a frame failing to parse or carrying an unexpected tag is dropped
	// on its own; the channel stays up
	if kind == ChannelKind_Trade {
		tradeEvent, err = ParseAggTrade(raw)
	} else {
		depthUpdate, err = ParseDepthUpdate(raw)
	}
	if err != nil {
		promclient.DroppedFramesCounter.WithLabelValues(string(kind)).Inc()
		if config.DebugMode {
			logger.Printf("dropped %s frame: %s", kind, err)
		}
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	if tradeEvent != nil {
		m.lastTrade = tradeEvent
		promclient.TradesCounter.Inc()
		select {
		case m.tradeCh <- tradeEvent:
		default:
		}
	}
	if depthUpdate != nil {
		m.lastDepth = depthUpdate
		promclient.DepthUpdatesCounter.Inc()
		select {
		case m.depthCh <- depthUpdate:
		default:
		}
	}
}

// onTransportError surfaces a generic displayable message. It does not
// touch connectivity: the channel's own close is authoritative for that.
func (m *ConnManager) onTransportError(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	logger.Printf("transport error: %s", err)
	m.lastErr = "connection error"
}

// onChannelClose handles a socket close. Closes of a retired generation
// (pair switch or shutdown already bumped gen) are expected and ignored;
// anything else flips connectivity and enters the reconnect policy.
func (m *ConnManager) onChannelClose(gen int, kind ChannelKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}

	ch := m.channel(kind)
	if ch == nil {
		return
	}
	ch.open = false
	ch.conn = nil
	m.setConnectedLocked(false)

	if m.state == ConnState_Failed {
		return
	}

	logger.Printf("unexpected close of %s channel", kind)
	m.scheduleReconnectLocked(kind)
}

// scheduleReconnectLocked arms a fixed-delay reconnect for one channel,
// bounded by MaxReconnectAttempts. Exhaustion is terminal for the
// current pair: the manager parks in the failed state until the next
// Open.
func (m *ConnManager) scheduleReconnectLocked(kind ChannelKind) {
	// once terminal, neither channel retries until the next Open
	if m.state == ConnState_Failed {
		return
	}

	ch := m.channel(kind)

	if ch.attempts >= m.conf.MaxReconnectAttempts {
		m.setStateLocked(ConnState_Failed)
		m.setConnectedLocked(false)
		m.lastErr = "connection failed, select a pair to retry"
		logger.Printf("%s channel reconnect attempts exhausted", kind)
		return
	}

	m.setStateLocked(ConnState_Reconnecting)
	ch.attempts++
	promclient.ReconnectAttemptsCounter.Inc()

	gen := m.gen
	delay := ch.retry.Duration()
	ch.reconnectTimer = time.AfterFunc(delay, func() {
		m.redial(gen, kind)
	})
}

func (m *ConnManager) redial(gen int, kind ChannelKind) {
	m.mu.Lock()
	stale := gen != m.gen
	m.mu.Unlock()

	if stale {
		return
	}
	m.dialChannel(gen, kind)
}

func (m *ConnManager) setStateLocked(state ConnState) {
	m.state = state
}

// setConnectedLocked flips the combined connectivity flag. It is sticky
// across a pair switch: closes of the retired generation never reach
// here, so the flag holds its value until both fresh channels open or a
// genuine failure lands.
func (m *ConnManager) setConnectedLocked(connected bool) {
	m.connected = connected

	if connected {
		promclient.ConnectedGauge.Set(1)
	} else {
		promclient.ConnectedGauge.Set(0)
	}
}

func (m *ConnManager) stopReconnectTimersLocked() {
	for _, ch := range []*channelState{m.trade, m.depth} {
		if ch != nil && ch.reconnectTimer != nil {
			ch.reconnectTimer.Stop()
			ch.reconnectTimer = nil
		}
	}
}

func (m *ConnManager) closeChannelsLocked() {
	for _, ch := range []*channelState{m.trade, m.depth} {
		if ch != nil && ch.conn != nil {
			ch.conn.Close()
			ch.conn = nil
			ch.open = false
		}
	}
}
