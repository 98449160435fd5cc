package traderz

import (
	"context"

	"github.com/rxtech-lab/traderz-go/pkg/errors"
)

// Orders manages pending (limit/stop) orders of the selected account.
// The session tokens are captured when Orders is created; a later account
// selection does not affect an existing Orders.
type Orders struct {
	resource
}

// CreatePendingOrderRequest places a pending order at Price. An empty Type means LIMIT.
type CreatePendingOrderRequest struct {
	Instrument string  `json:"instrument"`
	OrderSide  string  `json:"orderSide"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	Type       string  `json:"type"`
	SLPrice    float64 `json:"slPrice"`
	TPPrice    float64 `json:"tpPrice"`
	IsMobile   bool    `json:"isMobile"`
}

// EditPendingOrderRequest changes a pending order. PriceOrder is the new trigger price.
type EditPendingOrderRequest struct {
	Instrument string  `json:"instrument"`
	OrderID    string  `json:"id"`
	OrderSide  string  `json:"orderSide"`
	Type       string  `json:"type"`
	Volume     float64 `json:"volume"`
	SLPrice    float64 `json:"slPrice"`
	TPPrice    float64 `json:"tpPrice"`
	PriceOrder float64 `json:"priceOrder"`
	IsMobile   bool    `json:"isMobile"`
}

// CancelPendingOrderRequest cancels a pending order.
type CancelPendingOrderRequest struct {
	Instrument string `json:"instrument"`
	OrderID    string `json:"id"`
	OrderSide  string `json:"orderSide"`
	Type       string `json:"type"`
	IsMobile   bool   `json:"isMobile"`
}

type activeOrdersResponse struct {
	Orders []Record `json:"orders"`
}

// NewOrders creates an Orders bound to the tokens source holds now.
func NewOrders(source AccountSource, endpoint Endpoint) (*Orders, error) {
	auth, err := snapshotAuth(source, errors.ModuleOrders)
	if err != nil {
		return nil, err
	}

	return &Orders{
		resource: newResource(errors.ModuleOrders, endpoint, auth),
	}, nil
}

// GetActiveOrders returns every active pending order; an absent list is returned as empty.
func (o *Orders) GetActiveOrders(ctx context.Context) ([]Record, error) {
	var resp activeOrdersResponse
	if err := o.get(ctx, EndpointActiveOrders, nil, "get active orders", &resp); err != nil {
		return nil, err
	}

	if resp.Orders == nil {
		return []Record{}, nil
	}

	return resp.Orders, nil
}

// CreatePendingOrder places a pending order and returns its id.
func (o *Orders) CreatePendingOrder(ctx context.Context, req CreatePendingOrderRequest) (string, error) {
	req.Type = orderTypeOrDefault(req.Type)

	return o.mutate(ctx, EndpointPendingOrderCreate, req, "create pending order")
}

// EditPendingOrder edits a pending order and returns its id.
func (o *Orders) EditPendingOrder(ctx context.Context, req EditPendingOrderRequest) (string, error) {
	req.Type = orderTypeOrDefault(req.Type)

	return o.mutate(ctx, EndpointPendingOrderEdit, req, "edit pending order")
}

// CancelPendingOrder cancels a pending order and returns its id.
func (o *Orders) CancelPendingOrder(ctx context.Context, req CancelPendingOrderRequest) (string, error) {
	req.Type = orderTypeOrDefault(req.Type)

	return o.mutate(ctx, EndpointPendingOrderCancel, req, "cancel pending order")
}

func orderTypeOrDefault(orderType string) string {
	if orderType == "" {
		return OrderTypeLimit
	}

	return orderType
}
