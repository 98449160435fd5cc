// Package traderz is a client for the trading-platform REST API.
//
// A Client logs in when it is created, lets the caller pick one of the
// login's trading accounts and then exposes Market, Positions and Orders
// scoped to that account:
//
//	client, err := traderz.NewClient(ctx, cfg, traderz.Credentials{Email: "you@example.com", Password: "secret"})
//	if err != nil { ... }
//	if err := client.SelectAccount("123456"); err != nil { ... }
//	market, _ := client.Market()
//	symbols, err := market.GetSymbols(ctx)
//
// The client never retries, caches or rate-limits requests.
package traderz

import (
	"context"
	"sync"

	"github.com/rxtech-lab/traderz-go/pkg/errors"
)

// State is the lifecycle stage of a Client.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateAccountSelected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateAccountSelected:
		return "account_selected"
	default:
		return "unknown"
	}
}

// Client composes a Session with the Market, Positions and Orders modules of
// the selected account.
type Client struct {
	mu        sync.RWMutex
	session   *Session
	market    *Market
	positions *Positions
	orders    *Orders
}

// NewClient logs in and returns an authenticated client.
func NewClient(ctx context.Context, cfg Config, creds Credentials, opts ...Option) (*Client, error) {
	session, err := NewSession(ctx, cfg, creds, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		mu:        sync.RWMutex{},
		session:   session,
		market:    nil,
		positions: nil,
		orders:    nil,
	}, nil
}

// Accounts returns the underlying session.
func (c *Client) Accounts() *Session {
	return c.session
}

// ListAccounts returns the trading accounts of the login.
func (c *Client) ListAccounts() []AccountSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session.ListAccounts()
}

// State reports where the client is in its lifecycle.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return StateUnauthenticated
	}

	if c.session.SelectedAccount().IsSome() {
		return StateAccountSelected
	}

	return StateAuthenticated
}

// SelectAccount selects a trading account and rebuilds Market, Positions and
// Orders for it. On error the previous selection and modules stay in place.
func (c *Client) SelectAccount(tradingAccountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return errors.New(errors.ErrCodeTokenMissing, "client not logged in").In(errors.ModuleAccounts)
	}

	previous := c.session.SelectedAccount()
	if err := c.session.SelectAccount(tradingAccountID); err != nil {
		return err
	}

	if err := c.initTradingModules(); err != nil {
		c.session.restoreSelection(previous)

		return err
	}

	return nil
}

func (c *Client) initTradingModules() error {
	endpoint := c.session.Endpoint()

	market, err := NewMarket(c.session, endpoint)
	if err != nil {
		return err
	}

	positions, err := NewPositions(c.session, endpoint)
	if err != nil {
		return err
	}

	orders, err := NewOrders(c.session, endpoint)
	if err != nil {
		return err
	}

	c.market = market
	c.positions = positions
	c.orders = orders

	return nil
}

// Market returns the market module of the selected account.
func (c *Client) Market() (*Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.market == nil {
		return nil, notSelected(errors.ModuleMarket)
	}

	return c.market, nil
}

// Positions returns the positions module of the selected account.
func (c *Client) Positions() (*Positions, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.positions == nil {
		return nil, notSelected(errors.ModulePositions)
	}

	return c.positions, nil
}

// Orders returns the orders module of the selected account.
func (c *Client) Orders() (*Orders, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.orders == nil {
		return nil, notSelected(errors.ModuleOrders)
	}

	return c.orders, nil
}

func notSelected(module errors.Module) error {
	return errors.New(errors.ErrCodeAccountNotSelected, "you must select an account first using SelectAccount").In(module)
}
