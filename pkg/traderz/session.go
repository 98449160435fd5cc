package traderz

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/traderz-go/internal/logger"
	"github.com/rxtech-lab/traderz-go/internal/transport"
	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"go.uber.org/zap"
)

// AccountSource exposes the session state trading modules authorize with.
type AccountSource interface {
	// Token returns the bearer token obtained at login, if any.
	Token() optional.Option[string]
	// SelectedAccount returns the currently selected trading account, if any.
	SelectedAccount() optional.Option[TradingAccount]
}

// Compile-time interface check.
var _ AccountSource = (*Session)(nil)

// Endpoint is where trading modules send their requests.
type Endpoint struct {
	HTTP       *transport.Client
	SystemUUID string
	Logger     *logger.Logger
}

// Session owns the login token, the trading accounts of the login and the
// account currently selected for trading calls. It is safe for concurrent use.
type Session struct {
	cfg         Config
	credentials Credentials
	http        *transport.Client
	log         *logger.Logger

	mu       sync.RWMutex
	token    optional.Option[string]
	accounts []TradingAccount
	selected optional.Option[TradingAccount]
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	BrokerID string `json:"brokerId"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	Accounts []TradingAccount `json:"accounts"`
}

// NewSession validates cfg and logs in with creds. Login happens exactly once;
// a failed login returns an auth error and no session.
func NewSession(ctx context.Context, cfg Config, creds Credentials, opts ...Option) (*Session, error) {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o, err := buildOptions(cfg, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}

	transportOpts := []transport.Option{transport.WithLogger(o.log)}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
	}

	s := &Session{
		cfg:         cfg,
		credentials: creds,
		http:        transport.New(cfg.BaseURL, transportOpts...),
		log:         o.log,
		mu:          sync.RWMutex{},
		token:       optional.None[string](),
		accounts:    []TradingAccount{},
		selected:    optional.None[TradingAccount](),
	}

	if err := s.login(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) login(ctx context.Context) error {
	resp, err := s.http.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    EndpointLogin,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: loginPayload{
			Email:    s.credentials.Email,
			Password: s.credentials.Password,
			BrokerID: s.cfg.BrokerID,
		},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeRequestFailed, "login request failed", err).In(errors.ModuleAccounts)
	}

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("login rejected", zap.Int("status", resp.StatusCode))

		return errors.Wrap(
			errors.ErrCodeAuthFailed,
			"login failed",
			errors.NewHTTPError(errors.ModuleAccounts, resp.StatusCode, resp.Text(), "login rejected"),
		).In(errors.ModuleAccounts)
	}

	var data loginResponse
	if err := resp.DecodeJSON(&data); err != nil {
		return errors.Wrap(errors.ErrCodeDecodeFailed, "failed to decode login response", err).In(errors.ModuleAccounts)
	}

	s.mu.Lock()
	if data.Token != "" {
		s.token = optional.Some(data.Token)
	}

	if data.Accounts != nil {
		s.accounts = data.Accounts
	}
	s.mu.Unlock()

	s.log.Info("logged in", zap.Int("accounts", len(data.Accounts)))

	return nil
}

// ListAccounts returns every trading account of the login in its flattened form.
func (s *Session) ListAccounts() []AccountSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]AccountSummary, 0, len(s.accounts))
	for _, acc := range s.accounts {
		summaries = append(summaries, AccountSummary{
			TradingAccountID: acc.TradingAccountID.String(),
			TradingAPIToken:  acc.TradingAPIToken,
			OfferUUID:        acc.Offer.UUID,
			Name:             acc.Offer.Name,
		})
	}

	return summaries
}

// SelectAccount makes the first account whose id matches the active one.
// The previous selection is kept when no account matches.
func (s *Session) SelectAccount(tradingAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if acc.TradingAccountID.String() == tradingAccountID {
			s.selected = optional.Some(acc)
			s.log.Info("trading account selected", zap.String("trading_account_id", tradingAccountID))

			return nil
		}
	}

	return errors.Newf(errors.ErrCodeAccountNotFound, "trading account %s not found", tradingAccountID).In(errors.ModuleAccounts)
}

// SelectedAccount returns the currently selected account.
func (s *Session) SelectedAccount() optional.Option[TradingAccount] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selected
}

// restoreSelection puts back a selection saved from SelectedAccount.
func (s *Session) restoreSelection(selected optional.Option[TradingAccount]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = selected
}

// Token returns the bearer token obtained at login.
func (s *Session) Token() optional.Option[string] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// AuthHeaders returns the bearer authorization headers for the session token.
func (s *Session) AuthHeaders() (map[string]string, error) {
	token, err := s.Token().Take()
	if err != nil {
		return nil, errors.New(errors.ErrCodeTokenMissing, "no token available, login first").In(errors.ModuleAccounts)
	}

	return map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}, nil
}

// Endpoint returns the connection trading modules built on this session use.
func (s *Session) Endpoint() Endpoint {
	return Endpoint{
		HTTP:       s.http,
		SystemUUID: s.cfg.SystemUUID,
		Logger:     s.log,
	}
}

// Config returns the configuration the session was created with.
func (s *Session) Config() Config {
	return s.cfg
}
