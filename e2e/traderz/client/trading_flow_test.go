package client_test

import (
	"context"

	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"github.com/rxtech-lab/traderz-go/pkg/traderz"
)

func (s *ClientE2ETestSuite) TestMarketData() {
	ctx := context.Background()
	s.Require().NoError(s.client.SelectAccount("1001"))

	market, err := s.client.Market()
	s.Require().NoError(err)

	symbols, err := market.GetSymbols(ctx)
	s.Require().NoError(err)
	s.Len(symbols, len(s.config.Instruments))

	quotes, err := market.MarketWatch(ctx, []string{"EURUSD", "XAUUSD"})
	s.Require().NoError(err)
	s.Contains(quotes, "EURUSD")
	s.Contains(quotes, "XAUUSD")

	candles, err := market.GetCandles(ctx, "EURUSD", "H1", "2025-07-15T00:00:00Z", "2025-07-16T00:00:00Z")
	s.Require().NoError(err)
	s.Len(candles, 24)

	balance, err := market.GetBalance(ctx)
	s.Require().NoError(err)
	s.Equal("USD", balance["currency"])
}

func (s *ClientE2ETestSuite) TestPositionLifecycle() {
	ctx := context.Background()
	s.Require().NoError(s.client.SelectAccount("1001"))

	positions, err := s.client.Positions()
	s.Require().NoError(err)

	id, err := positions.OpenPosition(ctx, traderz.OpenPositionRequest{
		Instrument: "EURUSD",
		OrderSide:  "buy",
		Volume:     2,
	})
	s.Require().NoError(err)

	open, err := positions.GetOpenPositions(ctx)
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal(id, open[0]["id"])

	_, err = positions.EditPosition(ctx, traderz.EditPositionRequest{
		Instrument: "EURUSD",
		OrderID:    id,
		OrderSide:  "buy",
		Volume:     2,
		SLPrice:    1.0,
		TPPrice:    1.3,
	})
	s.Require().NoError(err)

	_, err = positions.PartialClose(ctx, traderz.PartialCloseRequest{
		PositionID: id,
		Volume:     0.5,
		Instrument: "EURUSD",
		OrderSide:  "buy",
	})
	s.Require().NoError(err)

	closed, err := positions.ClosePosition(ctx, traderz.ClosePositionRequest{
		PositionID: id,
		Instrument: "EURUSD",
		OrderSide:  "buy",
		Volume:     1.5,
	})
	s.Require().NoError(err)
	s.True(closed)

	open, err = positions.GetOpenPositions(ctx)
	s.Require().NoError(err)
	s.Empty(open)

	history, err := positions.GetClosedPositions(ctx, "2000-01-01", "2100-01-01")
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *ClientE2ETestSuite) TestPendingOrderLifecycle() {
	ctx := context.Background()
	s.Require().NoError(s.client.SelectAccount("1002"))

	orders, err := s.client.Orders()
	s.Require().NoError(err)

	id, err := orders.CreatePendingOrder(ctx, traderz.CreatePendingOrderRequest{
		Instrument: "GBPUSD",
		OrderSide:  traderz.SideSell,
		Volume:     0.3,
		Price:      1.35,
		Type:       traderz.OrderTypeStop,
	})
	s.Require().NoError(err)

	active, err := orders.GetActiveOrders(ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("STOP", active[0]["type"])

	_, err = orders.EditPendingOrder(ctx, traderz.EditPendingOrderRequest{
		Instrument: "GBPUSD",
		OrderID:    id,
		OrderSide:  traderz.SideSell,
		Type:       traderz.OrderTypeStop,
		Volume:     0.3,
		PriceOrder: 1.34,
	})
	s.Require().NoError(err)

	_, err = orders.CancelPendingOrder(ctx, traderz.CancelPendingOrderRequest{
		Instrument: "GBPUSD",
		OrderID:    id,
		OrderSide:  traderz.SideSell,
		Type:       traderz.OrderTypeStop,
	})
	s.Require().NoError(err)

	active, err = orders.GetActiveOrders(ctx)
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *ClientE2ETestSuite) TestAccountsAreIsolated() {
	ctx := context.Background()
	s.Require().NoError(s.client.SelectAccount("1001"))

	positions, err := s.client.Positions()
	s.Require().NoError(err)
	_, err = positions.OpenPosition(ctx, traderz.OpenPositionRequest{Instrument: "EURUSD", OrderSide: "sell", Volume: 1})
	s.Require().NoError(err)

	s.Require().NoError(s.client.SelectAccount("1002"))
	positions, err = s.client.Positions()
	s.Require().NoError(err)

	open, err := positions.GetOpenPositions(ctx)
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *ClientE2ETestSuite) TestRejectedOrderSurfacesServerMessage() {
	ctx := context.Background()
	s.Require().NoError(s.client.SelectAccount("1001"))

	orders, err := s.client.Orders()
	s.Require().NoError(err)

	_, err = orders.CreatePendingOrder(ctx, traderz.CreatePendingOrderRequest{
		Instrument: "EURUSD",
		OrderSide:  "",
		Volume:     0.1,
		Price:      1.05,
	})
	s.Error(err)

	apiErr, ok := errors.AsAPIError(err)
	s.Require().True(ok)
	s.Equal("invalid order parameters", apiErr.Message)
}
