package dto

import "time"

// GenericErrorMessage is the only message ever sent to clients on a failed
// request. Failure detail stays in the logs.
const GenericErrorMessage = "An error occurred while processing your request."

// ErrorTimestampLayout renders UTC with millisecond precision and a literal
// 'Z' suffix, e.g. 2024-01-01T12:00:00.000Z.
const ErrorTimestampLayout = "2006-01-02T15:04:05.000Z"

// ErrorResponse is the fixed envelope written for every failed request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message   string `json:"message"`
	TraceID   string `json:"traceId"`
	Timestamp string `json:"timestamp"`
}

func NewErrorResponse(traceID string, now time.Time) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message:   GenericErrorMessage,
			TraceID:   traceID,
			Timestamp: now.UTC().Format(ErrorTimestampLayout),
		},
	}
}
