package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// fallbackMessage is shown when a JSON error body carries no usable text.
const fallbackMessage = "API error"

// APIError is returned for every non-2xx backend response.
type APIError struct {
	StatusCode int
	Payload    *Payload
	// Message is the operator-facing text extracted from the payload.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend status=%d: %s", e.StatusCode, e.Message)
}

func newAPIError(status int, payload *Payload) *APIError {
	msg := payload.Text()
	if payload.JSON {
		msg = ExtractMessage(payload.Body)
	}
	return &APIError{StatusCode: status, Payload: payload, Message: msg}
}

// Message returns the text an operator should see for err: the extracted
// message of an APIError, or the error text for anything else.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// ExtractMessage picks the displayable message out of a JSON error body:
// a bare string, then a string detail, then detail.message, then the whole
// detail, then a top-level message, then the whole payload.
func ExtractMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fallbackMessage
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fallbackMessage
		}
		return s
	case '[':
		return prettyJSON(raw)
	case '{':
	default:
		// null, numbers and booleans carry nothing to show.
		return fallbackMessage
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return prettyJSON(raw)
	}

	if detail, ok := fields["detail"]; ok {
		if s, ok := jsonString(detail); ok {
			return s
		}
		if isContainer(detail) {
			var inner map[string]json.RawMessage
			if json.Unmarshal(detail, &inner) == nil {
				if s, ok := jsonString(inner["message"]); ok {
					return s
				}
			}
			return prettyJSON(detail)
		}
	}

	if s, ok := jsonString(fields["message"]); ok {
		return s
	}
	return prettyJSON(raw)
}

func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isContainer(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && (raw[0] == '{' || raw[0] == '[')
}

// prettyJSON re-indents raw JSON with two spaces, keeping key order.
func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
