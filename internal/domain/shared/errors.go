package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists        = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput         = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState         = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict  = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrPrerequisiteNotMet   = NewDomainError("PREREQUISITE_NOT_MET", "A prerequisite for this operation is not met")
	ErrAccountConfiguration = NewDomainError("ACCOUNT_CONFIGURATION", "Missing company accounts")
	ErrNoActiveOrders       = NewDomainError("NO_ACTIVE_ORDERS", "No active orders found for table")
	ErrDuplicateEntry       = NewDomainError("DUPLICATE_ENTRY", "A record with the same key already exists")
)
