package binance

import (
	"testing"

	"github.com/spooky-finn/go-binance-marketview/domain"
	"github.com/stretchr/testify/assert"
)

const aggTradeFrame = `{"e":"aggTrade","E":1700000001000,"s":"BTCUSDT","a":42,"p":"35001.20","q":"0.015","f":100,"l":105,"T":1700000000990,"m":true,"M":true}`

const depthUpdateFrame = `{"e":"depthUpdate","E":1700000002000,"s":"BTCUSDT","U":157,"u":160,"b":[["35000.00","1.5"],["34999.50","0"]],"a":[["35001.00","2.0"]]}`

func TestParseAggTrade(t *testing.T) {
	event, err := ParseAggTrade([]byte(aggTradeFrame))

	assert.NoError(t, err)
	assert.Equal(t, "BTCUSDT", event.Symbol)
	assert.Equal(t, int64(42), event.AggregateId)
	assert.Equal(t, "35001.20", event.Price)
	assert.Equal(t, "0.015", event.Quantity)
	assert.Equal(t, int64(1700000000990), event.TradeTime)
	assert.True(t, event.IsBuyerMaker)
	assert.Equal(t, domain.TradeSide_Sell, event.Side(), "Buyer-maker trades display as sells")
}

func TestParseDepthUpdate(t *testing.T) {
	update, err := ParseDepthUpdate([]byte(depthUpdateFrame))

	assert.NoError(t, err)
	assert.Equal(t, "BTCUSDT", update.Symbol)
	assert.Equal(t, int64(157), update.FirstUpdateId)
	assert.Equal(t, int64(160), update.FinalUpdateId)
	assert.Equal(t, [][]string{{"35000.00", "1.5"}, {"34999.50", "0"}}, update.Bids)
	assert.Equal(t, [][]string{{"35001.00", "2.0"}}, update.Asks)
}

func TestParse_UnexpectedEventTypeIsRejected(t *testing.T) {
	_, err := ParseAggTrade([]byte(depthUpdateFrame))
	assert.ErrorIs(t, err, ErrUnexpectedEventType)

	_, err = ParseDepthUpdate([]byte(aggTradeFrame))
	assert.ErrorIs(t, err, ErrUnexpectedEventType)
}

func TestParse_MalformedFrameIsRejected(t *testing.T) {
	_, err := ParseAggTrade([]byte(`{"e":"aggTrade",`))
	assert.Error(t, err)

	_, err = ParseDepthUpdate([]byte(`not json`))
	assert.Error(t, err)
}

func TestTopics(t *testing.T) {
	symbol, err := domain.NewMarketSymbol("BTC", "USDT")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "btcusdt@aggTrade", aggTradeTopic(symbol))
	assert.Equal(t, "btcusdt@depth@100ms", depthTopic(symbol, "100ms"))
}
