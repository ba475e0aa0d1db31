package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "strakdash/internal/errors"
)

// Message types sent by the server
const (
	TypeConnection = "connection"
	TypeError      = "error"
	TypeHeartbeat  = "heartbeat"
	ResultSuffix   = ":result"
)

// Message is the envelope of every server frame
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ErrorData describes a rejected client message
type ErrorData struct {
	Status    int         `json:"status"`
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// ResultType names the reply to an event, e.g. "range_changed:result"
func ResultType(event string) string {
	return event + ResultSuffix
}

// IsResultType reports whether t names an event reply
func IsResultType(t string) bool {
	return strings.HasSuffix(t, ResultSuffix)
}

// NewMessage stamps a message with the current time
func NewMessage(msgType string, data interface{}, traceID string) Message {
	return Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	}
}

// errorData converts err to the payload of an error frame
func errorData(err error) ErrorData {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return ErrorData{
			Status:    apiErr.StatusCode,
			ErrorCode: apiErr.ErrorCode,
			Message:   apiErr.Message,
			Details:   apiErr.Details,
		}
	}
	return ErrorData{
		Status:    http.StatusInternalServerError,
		ErrorCode: "INTERNAL_SERVER_ERROR",
		Message:   err.Error(),
	}
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
