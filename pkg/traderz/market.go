package traderz

import (
	"context"
	"strings"

	"github.com/rxtech-lab/traderz-go/pkg/errors"
)

// Market queries instruments, quotes, candles and the account balance.
//
// Unlike Positions and Orders, Market keeps a live reference to its
// AccountSource and rebuilds its headers on every call: selecting another
// account on the session redirects Market immediately, and a session that has
// lost its token or selection makes every call fail.
type Market struct {
	resource
}

// NewMarket creates a Market bound to source. source must have a selected account.
func NewMarket(source AccountSource, endpoint Endpoint) (*Market, error) {
	auth, err := liveAuth(source, errors.ModuleMarket)
	if err != nil {
		return nil, err
	}

	return &Market{
		resource: newResource(errors.ModuleMarket, endpoint, auth),
	}, nil
}

// GetSymbols returns the instruments tradable on the selected account.
func (m *Market) GetSymbols(ctx context.Context) ([]Record, error) {
	var symbols []Record
	if err := m.get(ctx, EndpointEffectiveInstruments, nil, "read symbols", &symbols); err != nil {
		return nil, err
	}

	return symbols, nil
}

// MarketWatch returns the current quotation of each symbol, keyed by symbol.
func (m *Market) MarketWatch(ctx context.Context, symbols []string) (map[string]Record, error) {
	query := map[string]string{"symbols": strings.Join(symbols, ",")}

	var quotes map[string]Record
	if err := m.get(ctx, EndpointQuotations, query, "fetch quotations", &quotes); err != nil {
		return nil, err
	}

	return quotes, nil
}

// GetCandles returns candles of symbol for interval (e.g. "M15") between start
// and end. Timestamps are forwarded as given, e.g. "2025-07-15T00:00:00Z".
func (m *Market) GetCandles(ctx context.Context, symbol, interval, start, end string) ([]Record, error) {
	query := map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"from":     start,
		"to":       end,
	}

	var candles []Record
	if err := m.get(ctx, EndpointCandles, query, "fetch candles", &candles); err != nil {
		return nil, err
	}

	return candles, nil
}

// GetBalance returns the balance record of the selected account.
func (m *Market) GetBalance(ctx context.Context) (Record, error) {
	var balance Record
	if err := m.get(ctx, EndpointBalance, nil, "fetch balance", &balance); err != nil {
		return nil, err
	}

	return balance, nil
}
