package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101

	// Authentication errors (200-299)
	ErrCodeAuthFailed   ErrorCode = 200
	ErrCodeTokenMissing ErrorCode = 201

	// Account selection errors (300-399)
	ErrCodeAccountNotFound    ErrorCode = 300
	ErrCodeAccountNotSelected ErrorCode = 301

	// Transport errors (400-499)
	ErrCodeRequestFailed ErrorCode = 400
	ErrCodeHTTPStatus    ErrorCode = 401
	ErrCodeDecodeFailed  ErrorCode = 402

	// Business errors reported inside a successful response (500-599)
	ErrCodeAPIRejected ErrorCode = 500
)

// Module names the SDK component that raised an error.
type Module string

const (
	ModuleAccounts  Module = "accounts"
	ModuleMarket    Module = "market"
	ModulePositions Module = "positions"
	ModuleOrders    Module = "orders"
)
