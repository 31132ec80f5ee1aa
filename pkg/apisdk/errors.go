package apisdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Detail     string
	ErrorCode  string
}

func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("apisdk: HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("apisdk: HTTP %d %s: %s", e.StatusCode, e.ErrorCode, e.Detail)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: er.Detail, ErrorCode: er.ErrorCode}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Detail:     http.StatusText(resp.StatusCode),
	}
}
