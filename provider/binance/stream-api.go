package binance

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spooky-finn/go-binance-marketview/domain"
)

const (
	eventTypeAggTrade    = "aggTrade"
	eventTypeDepthUpdate = "depthUpdate"
)

var ErrUnexpectedEventType = errors.New("unexpected event type")

// AggTradeData is the wire shape of an <symbol>@aggTrade frame.
type AggTradeData struct {
	Event        string `json:"e"`
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	AggregateId  int64  `json:"a"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	FirstTradeId int64  `json:"f"`
	LastTradeId  int64  `json:"l"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
	Ignore       bool   `json:"M"`
}

// DepthUpdateData is the wire shape of an <symbol>@depth@<interval>
// frame. Bid/ask entries carry quantity "0" as a deletion sentinel.
type DepthUpdateData struct {
	Event         string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateId int64      `json:"U"`
	FinalUpdateId int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

func ParseAggTrade(raw []byte) (*domain.TradeEvent, error) {
	var data AggTradeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed aggTrade frame: %w", err)
	}

	if data.Event != eventTypeAggTrade {
		return nil, ErrUnexpectedEventType
	}

	return &domain.TradeEvent{
		Symbol:       data.Symbol,
		AggregateId:  data.AggregateId,
		Price:        data.Price,
		Quantity:     data.Quantity,
		TradeTime:    data.TradeTime,
		IsBuyerMaker: data.IsBuyerMaker,
	}, nil
}

func ParseDepthUpdate(raw []byte) (*domain.DepthUpdate, error) {
	var data DepthUpdateData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed depthUpdate frame: %w", err)
	}

	if data.Event != eventTypeDepthUpdate {
		return nil, ErrUnexpectedEventType
	}

	update := domain.NewDepthUpdate(data.Symbol, data.Bids, data.Asks, data.FirstUpdateId, data.FinalUpdateId)
	update.EventTime = data.EventTime
	return update, nil
}

func aggTradeTopic(symbol *domain.MarketSymbol) string {
	return fmt.Sprintf("%s@%s", symbol.StreamSymbol(), eventTypeAggTrade)
}

func depthTopic(symbol *domain.MarketSymbol, interval string) string {
	return fmt.Sprintf("%s@depth@%s", symbol.StreamSymbol(), interval)
}
