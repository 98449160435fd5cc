package traderz

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Order sides accepted by the platform.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Pending order types.
const (
	OrderTypeLimit = "LIMIT"
	OrderTypeStop  = "STOP"
)

// Record is a server-defined record passed through without interpretation.
// Values are nil, bool, json.Number, string, []any or map[string]any.
type Record map[string]any

// Credentials identify the platform user. They are sent only with the login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ID is an identifier the server may encode either as a JSON string or a JSON number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*id = ID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", string(data))
	}

	*id = ID(n.String())

	return nil
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// Offer is the instrument offer a trading account is opened on.
type Offer struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// TradingAccount is one sub-account of a broker login, as returned by the login endpoint.
type TradingAccount struct {
	TradingAccountID ID     `json:"tradingAccountId"`
	TradingAPIToken  string `json:"tradingApiToken"`
	Offer            Offer  `json:"offer"`
}

// AccountSummary is the flattened view of a TradingAccount returned by ListAccounts.
type AccountSummary struct {
	TradingAccountID string `json:"tradingAccountId"`
	TradingAPIToken  string `json:"tradingApiToken"`
	OfferUUID        string `json:"offerUuid"`
	Name             string `json:"name"`
}

// mutationResult is the body returned by every order and position mutation.
type mutationResult struct {
	Status       string `json:"status"`
	OrderID      ID     `json:"orderId"`
	ErrorMessage string `json:"errorMessage"`
}

const statusOK = "OK"
