package server

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spooky-finn/go-binance-marketview/config"
	"github.com/spooky-finn/go-binance-marketview/domain"
	"github.com/spooky-finn/go-binance-marketview/helpers"
	"github.com/spooky-finn/go-binance-marketview/provider/binance"
	"github.com/spooky-finn/go-binance-marketview/usecase"
)

var logger = log.New(os.Stdout, "[server] ", log.LstdFlags)

const wsPushInterval = 250 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the delivery surface for the presentation layer: JSON
// endpoints for the ranked book, the tape and connectivity, a pair
// selector, and a websocket pushing the combined view.
type Server struct {
	conf *config.Config
	view *usecase.MarketViewUseCase
	mux  *http.ServeMux
}

type tradeRow struct {
	domain.TradeRecord
	TimeText string `json:"timeText"`
}

type snapshot struct {
	Pair      string           `json:"pair"`
	Status    binance.Status   `json:"status"`
	OrderBook *domain.BookView `json:"orderBook"`
	Trades    []tradeRow       `json:"trades"`
}

func NewServer(conf *config.Config, view *usecase.MarketViewUseCase) *Server {
	s := &Server{
		conf: conf,
		view: view,
		mux:  http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/orderbook", s.handleOrderBook)
	s.mux.HandleFunc("/api/trades", s.handleTrades)
	s.mux.HandleFunc("/api/pair", s.handlePair)
	s.mux.HandleFunc("/ws", s.handleWs)

	return s
}

func (s *Server) Run() error {
	logger.Printf("listening at %s", s.conf.ListenAddr)
	return http.ListenAndServe(s.conf.ListenAddr, s.mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.view.Status())
}

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.view.OrderBook())
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, tradeRows(s.view.Trades()))
}

// handlePair is the pair-selection boundary: switching here resets book
// and tape explicitly and reopens the feed channels.
func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbol")
	if raw == "" {
		http.Error(w, "missing symbol query param, expected e.g. btc_usdt", http.StatusBadRequest)
		return
	}

	symbol, err := domain.NewMarketSymbolFromString(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.view.SelectPair(symbol)
	writeJSON(w, map[string]string{"pair": symbol.String()})
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Printf("ws upgrade failed: %s", err)
		return
	}
	defer conn.Close()

	// drain client frames so close handshakes are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			snap := s.snapshot()
			if config.DebugMode {
				logger.Printf("pushing snapshot: %s", helpers.ToJsonString(snap.Status))
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

func (s *Server) snapshot() snapshot {
	view := s.view.OrderBook()
	return snapshot{
		Pair:      view.Symbol,
		Status:    s.view.Status(),
		OrderBook: view,
		Trades:    tradeRows(s.view.Trades()),
	}
}

func tradeRows(trades []domain.TradeRecord) []tradeRow {
	rows := make([]tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = tradeRow{TradeRecord: t, TimeText: helpers.FormatTradeTime(t.Time)}
	}
	return rows
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Printf("failed to encode response: %s", err)
	}
}
