package traderz

// API endpoint constants. Trading endpoints are relative to /mtr-api/{systemUuid}/.
const (
	EndpointLogin = "/manager/mtr-login"

	// Market
	EndpointEffectiveInstruments = "effective-instruments"
	EndpointQuotations           = "quotations"
	EndpointCandles              = "candles"
	EndpointBalance              = "balance"

	// Orders
	EndpointActiveOrders       = "active-orders"
	EndpointPendingOrderCreate = "pending-order/create"
	EndpointPendingOrderEdit   = "pending-order/edit"
	EndpointPendingOrderCancel = "pending-order/cancel"

	// Positions
	EndpointOpenPositions          = "open-positions"
	EndpointClosedPositions        = "closed-positions"
	EndpointPositionOpen           = "position/open"
	EndpointPositionEdit           = "position/edit"
	EndpointPositionClosePartially = "position/close-partially"
	EndpointPositionClose          = "position/close"
)

const tradingAPIPrefix = "/mtr-api/"

// tradingPath returns the absolute path of a trading endpoint for a system.
func tradingPath(systemUUID, endpoint string) string {
	return tradingAPIPrefix + systemUUID + "/" + endpoint
}
