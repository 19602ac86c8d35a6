// internal/api/types/response.go
package types

import "encoding/json"

// ErrorBody describes a failed request. Kind is the ledger error kind; Code is
// the driver error code when one was available.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// CreateWalletRequest represents the request body for wallet creation.
type CreateWalletRequest struct {
	UserID int64 `json:"user_id"`
}

// RecordTransactionRequest represents the request body for posting a ledger entry.
// Amount accepts a JSON number or a numeric string.
type RecordTransactionRequest struct {
	Amount      json.Number `json:"amount"`
	Status      string      `json:"status"`
	Type        string      `json:"type"`
	ReferenceID *string     `json:"reference_id"`
}
