// Package mockserver provides a fake trading-platform server for testing.
// It implements the login endpoint and the mtr-api trading endpoints, checks
// the auth headers of every trading request and keeps per-account positions
// and pending orders in memory.
package mockserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/traderz-go/mocks"
)

// Route names accepted by SetFailure and RejectMutation.
const (
	RouteLogin                  = "login"
	RouteEffectiveInstruments   = "effective-instruments"
	RouteQuotations             = "quotations"
	RouteCandles                = "candles"
	RouteBalance                = "balance"
	RouteActiveOrders           = "active-orders"
	RoutePendingOrderCreate     = "pending-order/create"
	RoutePendingOrderEdit       = "pending-order/edit"
	RoutePendingOrderCancel     = "pending-order/cancel"
	RouteOpenPositions          = "open-positions"
	RouteClosedPositions        = "closed-positions"
	RoutePositionOpen           = "position/open"
	RoutePositionEdit           = "position/edit"
	RoutePositionClosePartially = "position/close-partially"
	RoutePositionClose          = "position/close"
)

const statusOK = "OK"

// Account is a trading account handed out by the login endpoint.
type Account struct {
	ID string
	// NumericID makes the login response encode ID as a JSON number.
	NumericID       bool
	TradingAPIToken string
	OfferUUID       string
	OfferName       string
	Balance         float64
	Currency        string
}

// Failure is a canned non-2xx response.
type Failure struct {
	Status int
	Body   string
}

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Route   string
	Method  string
	Path    string
	Header  http.Header
	Query   url.Values
	Body    []byte
	Account string
}

// Position is an open market position.
type Position struct {
	ID         string
	Instrument string
	Side       string
	Volume     float64
	OpenPrice  float64
	SLPrice    float64
	TPPrice    float64
	OpenTime   time.Time
}

// PendingOrder is a limit or stop order waiting to trigger.
type PendingOrder struct {
	ID         string
	Instrument string
	Side       string
	Type       string
	Volume     float64
	Price      float64
	SLPrice    float64
	TPPrice    float64
	CreatedAt  time.Time
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	Email      string
	Password   string
	BrokerID   string
	SystemUUID string
	// Token is the bearer token returned by a successful login
	Token    string
	Accounts []Account
	// Instruments served from effective-instruments
	Instruments []string
	// NumericOrderIDs makes mutations report orderId as a JSON number
	NumericOrderIDs bool
	// OmitPositionsKey makes open-positions answer {} instead of {"positions": [...]}
	OmitPositionsKey bool
	// Seed drives the market data generator
	Seed int64
}

// DefaultConfig returns a config with two accounts, one of them with a numeric id.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Email:      "trader@example.com",
		Password:   "secret",
		BrokerID:   "broker-1",
		SystemUUID: "system-uuid-1",
		Token:      "bearer-token-1",
		Accounts: []Account{
			{
				ID:              "1001",
				TradingAPIToken: "trading-token-1001",
				OfferUUID:       "offer-uuid-1",
				OfferName:       "Standard",
				Balance:         10000,
				Currency:        "USD",
			},
			{
				ID:              "1002",
				NumericID:       true,
				TradingAPIToken: "trading-token-1002",
				OfferUUID:       "offer-uuid-2",
				OfferName:       "Pro",
				Balance:         25000,
				Currency:        "EUR",
			},
		},
		Instruments: []string{"EURUSD", "GBPUSD", "XAUUSD"},
		Seed:        42,
	}
}

type accountState struct {
	account   Account
	positions map[string]*Position
	orders    map[string]*PendingOrder
	closed    []map[string]any
}

// MockBrokerServer provides a fake trading platform for testing.
type MockBrokerServer struct {
	mu sync.RWMutex

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	config   ServerConfig
	accounts map[string]*accountState

	failures    map[string]Failure
	rejections  map[string]string
	requests    []RecordedRequest
	loginCount  int
	orderIDSeq  int64
	generator   *mocks.DataGenerator
	genConfig   mocks.GeneratorConfig
	clockSource func() time.Time
}

// NewMockBrokerServer creates a new mock broker server.
func NewMockBrokerServer(config ServerConfig) *MockBrokerServer {
	server := &MockBrokerServer{
		mu:          sync.RWMutex{},
		httpServer:  nil,
		listener:    nil,
		config:      config,
		accounts:    make(map[string]*accountState),
		failures:    make(map[string]Failure),
		rejections:  make(map[string]string),
		requests:    make([]RecordedRequest, 0),
		loginCount:  0,
		orderIDSeq:  5000,
		generator:   mocks.NewDataGenerator(config.Seed),
		genConfig:   mocks.DefaultConfig(),
		clockSource: time.Now,
	}
	server.resetAccounts()

	return server
}

func (s *MockBrokerServer) resetAccounts() {
	s.accounts = make(map[string]*accountState)
	for _, acc := range s.config.Accounts {
		s.accounts[acc.TradingAPIToken] = &accountState{
			account:   acc,
			positions: make(map[string]*Position),
			orders:    make(map[string]*PendingOrder),
			closed:    make([]map[string]any, 0),
		}
	}
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBrokerServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Handler returns the router of the server, for use with httptest.
func (s *MockBrokerServer) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/manager/mtr-login", s.handleLogin).Methods(http.MethodPost)

	api := router.PathPrefix("/mtr-api/{systemUuid}").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/effective-instruments", s.handleInstruments).Methods(http.MethodGet)
	api.HandleFunc("/quotations", s.handleQuotations).Methods(http.MethodGet)
	api.HandleFunc("/candles", s.handleCandles).Methods(http.MethodGet)
	api.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)

	api.HandleFunc("/active-orders", s.handleActiveOrders).Methods(http.MethodGet)
	api.HandleFunc("/pending-order/create", s.handleCreatePendingOrder).Methods(http.MethodPost)
	api.HandleFunc("/pending-order/edit", s.handleEditPendingOrder).Methods(http.MethodPost)
	api.HandleFunc("/pending-order/cancel", s.handleCancelPendingOrder).Methods(http.MethodPost)

	api.HandleFunc("/open-positions", s.handleOpenPositions).Methods(http.MethodGet)
	api.HandleFunc("/closed-positions", s.handleClosedPositions).Methods(http.MethodPost)
	api.HandleFunc("/position/open", s.handleOpenPosition).Methods(http.MethodPost)
	api.HandleFunc("/position/edit", s.handleEditPosition).Methods(http.MethodPost)
	api.HandleFunc("/position/close-partially", s.handleClosePartially).Methods(http.MethodPost)
	api.HandleFunc("/position/close", s.handleClosePosition).Methods(http.MethodPost)

	return router
}

// Stop stops the mock server.
func (s *MockBrokerServer) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockBrokerServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBrokerServer) BaseURL() string {
	return "http://" + s.Address()
}

// Config returns the server configuration.
func (s *MockBrokerServer) Config() ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.config
}

// SetFailure makes every request to route answer with status and body until ClearFailures.
func (s *MockBrokerServer) SetFailure(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = Failure{Status: status, Body: body}
}

// RejectMutation makes the mutation route answer 200 with status "ERROR" and message.
func (s *MockBrokerServer) RejectMutation(route, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections[route] = message
}

// ClearFailures removes every failure and rejection.
func (s *MockBrokerServer) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
	s.rejections = make(map[string]string)
}

// SetOmitPositionsKey toggles whether open-positions omits its positions key.
func (s *MockBrokerServer) SetOmitPositionsKey(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.OmitPositionsKey = omit
}

// Requests returns every request received so far.
func (s *MockBrokerServer) Requests() []RecordedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]RecordedRequest, len(s.requests))
	copy(result, s.requests)

	return result
}

// LastRequest returns the last request made to route.
func (s *MockBrokerServer) LastRequest(route string) (RecordedRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Route == route {
			return s.requests[i], true
		}
	}

	return RecordedRequest{}, false
}

// LoginCount returns how many login requests were received.
func (s *MockBrokerServer) LoginCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loginCount
}

// Positions returns the open positions of the account owning tradingAPIToken.
func (s *MockBrokerServer) Positions(tradingAPIToken string) []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.accounts[tradingAPIToken]
	if !ok {
		return nil
	}

	result := make([]Position, 0, len(state.positions))
	for _, p := range state.positions {
		result = append(result, *p)
	}

	return result
}

// PendingOrders returns the pending orders of the account owning tradingAPIToken.
func (s *MockBrokerServer) PendingOrders(tradingAPIToken string) []PendingOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.accounts[tradingAPIToken]
	if !ok {
		return nil
	}

	result := make([]PendingOrder, 0, len(state.orders))
	for _, o := range state.orders {
		result = append(result, *o)
	}

	return result
}

// AddPosition seeds an open position for the account owning tradingAPIToken.
func (s *MockBrokerServer) AddPosition(tradingAPIToken string, position Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.accounts[tradingAPIToken]; ok {
		p := position
		state.positions[p.ID] = &p
	}
}

// Reset clears orders, positions, failures and recorded requests.
func (s *MockBrokerServer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetAccounts()
	s.failures = make(map[string]Failure)
	s.rejections = make(map[string]string)
	s.requests = make([]RecordedRequest, 0)
	s.loginCount = 0
	s.orderIDSeq = 5000
}

// Middleware and helpers

type contextKey struct{}

func (s *MockBrokerServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := strings.TrimPrefix(r.URL.Path, "/mtr-api/"+mux.Vars(r)["systemUuid"]+"/")

		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		tradingToken := r.Header.Get("Auth-trading-api")
		s.record(route, r, body, tradingToken)

		s.mu.RLock()
		systemUUID := s.config.SystemUUID
		bearer := s.config.Token
		state, known := s.accounts[tradingToken]
		failure, failing := s.failures[route]
		s.mu.RUnlock()

		if mux.Vars(r)["systemUuid"] != systemUUID {
			writeError(w, http.StatusNotFound, "unknown system")

			return
		}

		cookie, err := r.Cookie("co-auth")
		if err != nil || cookie.Value != bearer {
			writeError(w, http.StatusUnauthorized, "invalid session")

			return
		}

		if !known {
			writeError(w, http.StatusUnauthorized, "invalid trading api token")

			return
		}

		if failing {
			w.WriteHeader(failure.Status)
			_, _ = w.Write([]byte(failure.Body))

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, state)))
	})
}

func (s *MockBrokerServer) record(route string, r *http.Request, body []byte, account string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, RecordedRequest{
		Route:   route,
		Method:  r.Method,
		Path:    r.URL.Path,
		Header:  r.Header.Clone(),
		Query:   r.URL.Query(),
		Body:    body,
		Account: account,
	})
}

func accountFrom(r *http.Request) *accountState {
	state, _ := r.Context().Value(contextKey{}).(*accountState)

	return state
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *MockBrokerServer) nextOrderID() any {
	s.orderIDSeq++
	if s.config.NumericOrderIDs {
		return json.Number(strconv.FormatInt(s.orderIDSeq, 10))
	}

	return uuid.NewString()
}

// rejected writes a status "ERROR" answer when route is configured to reject.
// Callers hold s.mu.
func (s *MockBrokerServer) rejected(w http.ResponseWriter, route string) bool {
	message, ok := s.rejections[route]
	if !ok {
		return false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ERROR",
		"errorMessage": message,
	})

	return true
}

func idString(id any) string {
	switch v := id.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	return decoder.Decode(out)
}

func validSide(side string) bool {
	return side == "BUY" || side == "SELL"
}

// Login

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	BrokerID string `json:"brokerId"`
}

func (s *MockBrokerServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	s.record(RouteLogin, r, body, "")

	s.mu.Lock()
	s.loginCount++
	failure, failing := s.failures[RouteLogin]
	config := s.config
	s.mu.Unlock()

	if failing {
		w.WriteHeader(failure.Status)
		_, _ = w.Write([]byte(failure.Body))

		return
	}

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")

		return
	}

	if req.Email != config.Email || req.Password != config.Password || req.BrokerID != config.BrokerID {
		writeError(w, http.StatusUnauthorized, "invalid credentials")

		return
	}

	accounts := make([]map[string]any, 0, len(config.Accounts))
	for _, acc := range config.Accounts {
		var id any = acc.ID
		if acc.NumericID {
			id = json.Number(acc.ID)
		}

		accounts = append(accounts, map[string]any{
			"tradingAccountId": id,
			"tradingApiToken":  acc.TradingAPIToken,
			"offer": map[string]any{
				"uuid": acc.OfferUUID,
				"name": acc.OfferName,
			},
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":    config.Token,
		"accounts": accounts,
	})
}

// Market

func (s *MockBrokerServer) handleInstruments(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instruments := make([]map[string]any, 0, len(s.config.Instruments))
	for _, symbol := range s.config.Instruments {
		instruments = append(instruments, map[string]any{
			"symbol":     symbol,
			"tradable":   true,
			"lotMin":     0.01,
			"pipPosition": 4,
		})
	}

	writeJSON(w, http.StatusOK, instruments)
}

func (s *MockBrokerServer) handleQuotations(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("symbols")
	if param == "" {
		writeError(w, http.StatusBadRequest, "symbols is required")

		return
	}

	s.mu.Lock()
	quotes := s.generator.GenerateQuotes(s.genConfig, strings.Split(param, ","), s.clockSource())
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, quotes)
}

func (s *MockBrokerServer) handleCandles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := query.Get("symbol")
	interval := query.Get("interval")

	if symbol == "" || interval == "" {
		writeError(w, http.StatusBadRequest, "symbol and interval are required")

		return
	}

	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from")

		return
	}

	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to")

		return
	}

	s.mu.Lock()
	candles, err := s.generator.GenerateCandles(s.genConfig, symbol, interval, from, to)
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, candles)
}

func (s *MockBrokerServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	state := accountFrom(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"tradingAccountId": state.account.ID,
		"balance":          state.account.Balance,
		"equity":           state.account.Balance,
		"currency":         state.account.Currency,
		"openPositions":    len(state.positions),
	})
}

// Orders

type pendingOrderRequest struct {
	Instrument string      `json:"instrument"`
	ID         string      `json:"id"`
	OrderSide  string      `json:"orderSide"`
	Type       string      `json:"type"`
	Volume     json.Number `json:"volume"`
	Price      json.Number `json:"price"`
	PriceOrder json.Number `json:"priceOrder"`
	SLPrice    json.Number `json:"slPrice"`
	TPPrice    json.Number `json:"tpPrice"`
	IsMobile   bool        `json:"isMobile"`
}

func number(n json.Number) float64 {
	f, _ := n.Float64()

	return f
}

func (s *MockBrokerServer) handleActiveOrders(w http.ResponseWriter, r *http.Request) {
	state := accountFrom(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]map[string]any, 0, len(state.orders))
	for _, o := range state.orders {
		orders = append(orders, pendingOrderRecord(o))
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func pendingOrderRecord(o *PendingOrder) map[string]any {
	return map[string]any{
		"id":         o.ID,
		"instrument": o.Instrument,
		"orderSide":  o.Side,
		"type":       o.Type,
		"volume":     o.Volume,
		"price":      o.Price,
		"slPrice":    o.SLPrice,
		"tpPrice":    o.TPPrice,
		"createdAt":  o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *MockBrokerServer) handleCreatePendingOrder(w http.ResponseWriter, r *http.Request) {
	var req pendingOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePendingOrderCreate) {
		return
	}

	if req.Instrument == "" || !validSide(req.OrderSide) || number(req.Volume) <= 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "invalid order parameters"})

		return
	}

	id := s.nextOrderID()
	accountFrom(r).orders[idString(id)] = &PendingOrder{
		ID:         idString(id),
		Instrument: req.Instrument,
		Side:       req.OrderSide,
		Type:       req.Type,
		Volume:     number(req.Volume),
		Price:      number(req.Price),
		SLPrice:    number(req.SLPrice),
		TPPrice:    number(req.TPPrice),
		CreatedAt:  s.clockSource(),
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": id})
}

func (s *MockBrokerServer) handleEditPendingOrder(w http.ResponseWriter, r *http.Request) {
	var req pendingOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePendingOrderEdit) {
		return
	}

	order, ok := accountFrom(r).orders[req.ID]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "order not found"})

		return
	}

	order.Volume = number(req.Volume)
	order.Price = number(req.PriceOrder)
	order.SLPrice = number(req.SLPrice)
	order.TPPrice = number(req.TPPrice)
	order.Type = req.Type

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": order.ID})
}

func (s *MockBrokerServer) handleCancelPendingOrder(w http.ResponseWriter, r *http.Request) {
	var req pendingOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePendingOrderCancel) {
		return
	}

	state := accountFrom(r)
	if _, ok := state.orders[req.ID]; !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "order not found"})

		return
	}

	delete(state.orders, req.ID)

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": req.ID})
}

// Positions

type positionRequest struct {
	PositionID string      `json:"positionId"`
	ID         string      `json:"id"`
	Instrument string      `json:"instrument"`
	OrderSide  string      `json:"orderSide"`
	Volume     json.Number `json:"volume"`
	SLPrice    json.Number `json:"slPrice"`
	TPPrice    json.Number `json:"tpPrice"`
	IsMobile   bool        `json:"isMobile"`
}

// closePositionRequest keeps volume raw: the close endpoint takes it as a string.
type closePositionRequest struct {
	PositionID string          `json:"positionId"`
	Instrument string          `json:"instrument"`
	OrderSide  string          `json:"orderSide"`
	Volume     json.RawMessage `json:"volume"`
}

func positionRecord(p *Position) map[string]any {
	return map[string]any{
		"id":         p.ID,
		"instrument": p.Instrument,
		"orderSide":  p.Side,
		"volume":     p.Volume,
		"openPrice":  p.OpenPrice,
		"slPrice":    p.SLPrice,
		"tpPrice":    p.TPPrice,
		"openTime":   p.OpenTime.UTC().Format(time.RFC3339),
	}
}

func (s *MockBrokerServer) handleOpenPositions(w http.ResponseWriter, r *http.Request) {
	state := accountFrom(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config.OmitPositionsKey {
		writeJSON(w, http.StatusOK, map[string]any{})

		return
	}

	positions := make([]map[string]any, 0, len(state.positions))
	for _, p := range state.positions {
		positions = append(positions, positionRecord(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (s *MockBrokerServer) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeBody(r, &req); err != nil || req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")

		return
	}

	state := accountFrom(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{"operations": state.closed})
}

func (s *MockBrokerServer) handleOpenPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePositionOpen) {
		return
	}

	if req.Instrument == "" || !validSide(req.OrderSide) || number(req.Volume) <= 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "invalid position parameters"})

		return
	}

	now := s.clockSource()
	quote := s.generator.GenerateQuote(s.genConfig, req.Instrument, now)
	price := quote.Ask
	if req.OrderSide == "SELL" {
		price = quote.Bid
	}

	id := s.nextOrderID()
	accountFrom(r).positions[idString(id)] = &Position{
		ID:         idString(id),
		Instrument: req.Instrument,
		Side:       req.OrderSide,
		Volume:     number(req.Volume),
		OpenPrice:  price,
		SLPrice:    number(req.SLPrice),
		TPPrice:    number(req.TPPrice),
		OpenTime:   now,
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": id})
}

func (s *MockBrokerServer) handleEditPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePositionEdit) {
		return
	}

	position, ok := accountFrom(r).positions[req.ID]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "position not found"})

		return
	}

	position.SLPrice = number(req.SLPrice)
	position.TPPrice = number(req.TPPrice)
	if v := number(req.Volume); v > 0 {
		position.Volume = v
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": position.ID})
}

func (s *MockBrokerServer) handleClosePartially(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePositionClosePartially) {
		return
	}

	state := accountFrom(r)
	position, ok := state.positions[req.PositionID]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "position not found"})

		return
	}

	volume := number(req.Volume)
	if volume <= 0 || volume > position.Volume {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "invalid volume"})

		return
	}

	s.closeVolume(state, position, volume)

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": s.nextOrderID()})
}

func (s *MockBrokerServer) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	var req closePositionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejected(w, RoutePositionClose) {
		return
	}

	var volumeText string
	if err := json.Unmarshal(req.Volume, &volumeText); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "volume must be a string"})

		return
	}

	volume, err := strconv.ParseFloat(volumeText, 64)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "invalid volume"})

		return
	}

	state := accountFrom(r)
	position, ok := state.positions[req.PositionID]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ERROR", "errorMessage": "position not found"})

		return
	}

	s.closeVolume(state, position, volume)

	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "orderId": position.ID})
}

// closeVolume moves volume of position into the closed operations. Callers hold s.mu.
func (s *MockBrokerServer) closeVolume(state *accountState, position *Position, volume float64) {
	now := s.clockSource()
	quote := s.generator.GenerateQuote(s.genConfig, position.Instrument, now)

	closePrice := quote.Bid
	if position.Side == "SELL" {
		closePrice = quote.Ask
	}

	state.closed = append(state.closed, map[string]any{
		"positionId": position.ID,
		"instrument": position.Instrument,
		"orderSide":  position.Side,
		"volume":     volume,
		"openPrice":  position.OpenPrice,
		"closePrice": closePrice,
		"closeTime":  now.UTC().Format(time.RFC3339),
	})

	if volume >= position.Volume {
		delete(state.positions, position.ID)

		return
	}

	position.Volume -= volume
}
