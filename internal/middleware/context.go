package middleware

// Context keys used to store authentication metadata.
const (
	ContextKeyOperatorID    = "operator_id"
	ContextKeyOperatorEmail = "operator_email"
	ContextKeyOperatorRole  = "operator_role"
	ContextKeyRequestID     = "request_id"
)
