package model

import "errors"

// Domain errors surfaced by the service layer. Handlers map them to HTTP
// status codes; persistence errors that are not listed here bubble unchanged.
var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrSaleNotFound    = errors.New("sale not found")
	ErrRepairNotFound  = errors.New("repair not found")
	ErrProductNotFound = errors.New("product not found")
	ErrPhoneNotFound   = errors.New("phone not found")
	ErrClientNotFound  = errors.New("client not found")
)
