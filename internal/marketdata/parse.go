package marketdata

import (
	"fmt"

	"github.com/shopspring/decimal"

	"scalper/pkg/types"
)

func parseOrderBook(w wireOrderBook) (types.OrderBookSnapshot, error) {
	bid, err := decimal.NewFromString(w.BestBid)
	if err != nil {
		return types.OrderBookSnapshot{}, fmt.Errorf("parse best_bid: %w", err)
	}
	ask, err := decimal.NewFromString(w.BestAsk)
	if err != nil {
		return types.OrderBookSnapshot{}, fmt.Errorf("parse best_ask: %w", err)
	}
	bidSize, err := decimal.NewFromString(w.BidSize)
	if err != nil {
		return types.OrderBookSnapshot{}, fmt.Errorf("parse bid_size: %w", err)
	}
	askSize, err := decimal.NewFromString(w.AskSize)
	if err != nil {
		return types.OrderBookSnapshot{}, fmt.Errorf("parse ask_size: %w", err)
	}
	return types.OrderBookSnapshot{
		Symbol:      types.Symbol(w.Symbol),
		TimestampMS: w.TimestampMS,
		BestBid:     bid,
		BestAsk:     ask,
		BidSize:     bidSize,
		AskSize:     askSize,
	}, nil
}

func parseTrade(w wireTrade) (types.TradeTick, error) {
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return types.TradeTick{}, fmt.Errorf("parse price: %w", err)
	}
	size, err := decimal.NewFromString(w.Size)
	if err != nil {
		return types.TradeTick{}, fmt.Errorf("parse size: %w", err)
	}
	return types.TradeTick{
		Symbol:      types.Symbol(w.Symbol),
		TimestampMS: w.TimestampMS,
		Price:       price,
		Size:        size,
		Side:        types.Side(w.Side),
	}, nil
}
