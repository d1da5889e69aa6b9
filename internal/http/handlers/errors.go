// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries one of these codes in the ErrorResponse
// envelope so clients can branch on it without parsing messages.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "identity_taken",
//	  "message": "identity already registered"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeIdentityTaken     = "identity_taken"
	ErrCodeInvalidIdentity   = "invalid_identity"
	ErrCodeInvalidCredential = "invalid_credential"
	ErrCodeTooLong           = "too_long"
)
