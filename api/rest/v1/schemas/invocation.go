package schemas

import "time"

// ErrorDocument is the failure report posted by a runtime host to the
// error endpoint, and echoed back to invoke callers on failure.
type ErrorDocument struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage" binding:"required"`
}

// InvocationResponse is the record view returned by the invocations
// listing endpoints.
type InvocationResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	EventSize    int        `json:"event_size"`
	ResultSize   int        `json:"result_size"`
	ErrorType    string     `json:"error_type,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ReceivedAt   time.Time  `json:"received_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
}
