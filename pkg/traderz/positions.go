package traderz

import (
	"context"
	"math"
	"strings"

	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"github.com/shopspring/decimal"
)

// Positions queries and manages market positions of the selected account.
// The session tokens are captured when Positions is created; a later account
// selection does not affect an existing Positions.
type Positions struct {
	resource
}

// OpenPositionRequest opens a market position. Zero SLPrice/TPPrice mean no stop loss / take profit.
type OpenPositionRequest struct {
	Instrument string  `json:"instrument"`
	OrderSide  string  `json:"orderSide"`
	Volume     float64 `json:"volume"`
	SLPrice    float64 `json:"slPrice"`
	TPPrice    float64 `json:"tpPrice"`
	IsMobile   bool    `json:"isMobile"`
}

// EditPositionRequest changes the volume and protective prices of a position.
type EditPositionRequest struct {
	Instrument string  `json:"instrument"`
	OrderID    string  `json:"id"`
	OrderSide  string  `json:"orderSide"`
	Volume     float64 `json:"volume"`
	SLPrice    float64 `json:"slPrice"`
	TPPrice    float64 `json:"tpPrice"`
	IsMobile   bool    `json:"isMobile"`
}

// PartialCloseRequest closes Volume of a position.
type PartialCloseRequest struct {
	PositionID string  `json:"positionId"`
	Volume     float64 `json:"volume"`
	Instrument string  `json:"instrument"`
	OrderSide  string  `json:"orderSide"`
	IsMobile   bool    `json:"isMobile"`
}

// ClosePositionRequest closes a position.
type ClosePositionRequest struct {
	PositionID string
	Instrument string
	OrderSide  string
	Volume     float64
}

// closePositionPayload carries volume as a string; the close endpoint expects it that way.
type closePositionPayload struct {
	PositionID string `json:"positionId"`
	Instrument string `json:"instrument"`
	OrderSide  string `json:"orderSide"`
	Volume     string `json:"volume"`
}

type openPositionsResponse struct {
	Positions []Record `json:"positions"`
}

type closedPositionsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type closedPositionsResponse struct {
	Operations []Record `json:"operations"`
}

// NewPositions creates a Positions bound to the tokens source holds now.
func NewPositions(source AccountSource, endpoint Endpoint) (*Positions, error) {
	auth, err := snapshotAuth(source, errors.ModulePositions)
	if err != nil {
		return nil, err
	}

	return &Positions{
		resource: newResource(errors.ModulePositions, endpoint, auth),
	}, nil
}

// GetOpenPositions returns the open positions; an absent list is returned as empty.
func (p *Positions) GetOpenPositions(ctx context.Context) ([]Record, error) {
	var resp openPositionsResponse
	if err := p.get(ctx, EndpointOpenPositions, nil, "fetch open positions", &resp); err != nil {
		return nil, err
	}

	if resp.Positions == nil {
		return []Record{}, nil
	}

	return resp.Positions, nil
}

// GetClosedPositions returns the closing operations between fromDate and toDate.
func (p *Positions) GetClosedPositions(ctx context.Context, fromDate, toDate string) ([]Record, error) {
	var resp closedPositionsResponse
	body := closedPositionsRequest{From: fromDate, To: toDate}
	if err := p.post(ctx, EndpointClosedPositions, body, "fetch closed positions", &resp); err != nil {
		return nil, err
	}

	if resp.Operations == nil {
		return []Record{}, nil
	}

	return resp.Operations, nil
}

// OpenPosition opens a position and returns its order id.
func (p *Positions) OpenPosition(ctx context.Context, req OpenPositionRequest) (string, error) {
	req.OrderSide = strings.ToUpper(req.OrderSide)

	return p.mutate(ctx, EndpointPositionOpen, req, "open position")
}

// EditPosition edits a position and returns its order id.
func (p *Positions) EditPosition(ctx context.Context, req EditPositionRequest) (string, error) {
	req.OrderSide = strings.ToUpper(req.OrderSide)

	return p.mutate(ctx, EndpointPositionEdit, req, "edit position")
}

// PartialClose closes part of a position and returns the resulting order id.
func (p *Positions) PartialClose(ctx context.Context, req PartialCloseRequest) (string, error) {
	req.OrderSide = strings.ToUpper(req.OrderSide)

	return p.mutate(ctx, EndpointPositionClosePartially, req, "partially close position")
}

// ClosePosition closes a position. It returns true once the platform accepted the close.
func (p *Positions) ClosePosition(ctx context.Context, req ClosePositionRequest) (bool, error) {
	if math.IsNaN(req.Volume) || math.IsInf(req.Volume, 0) {
		return false, errors.Newf(errors.ErrCodeInvalidParameter, "close volume must be finite, got %v", req.Volume).In(errors.ModulePositions)
	}

	payload := closePositionPayload{
		PositionID: req.PositionID,
		Instrument: req.Instrument,
		OrderSide:  strings.ToUpper(req.OrderSide),
		Volume:     formatVolume(req.Volume),
	}

	if _, err := p.mutate(ctx, EndpointPositionClose, payload, "close position"); err != nil {
		return false, err
	}

	return true, nil
}

// formatVolume renders volume the way the close endpoint has always received
// it: shortest decimal form, with integral values keeping one fractional digit
// ("1.0", "0.25").
func formatVolume(volume float64) string {
	d := decimal.NewFromFloat(volume)
	if d.IsInteger() {
		return d.StringFixed(1)
	}

	return d.String()
}
