package backend

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status  int
	Message string
	// Errors holds field-keyed validation messages from 422 responses
	Errors map[string][]string
	Body   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		if e.Body != "" {
			return fmt.Sprintf("backend request failed (status %d): %s", e.Status, e.Body)
		}
		return fmt.Sprintf("backend request failed (status %d)", e.Status)
	}
	return fmt.Sprintf("backend request failed (status %d): %s", e.Status, e.Message)
}

// IsValidation reports whether the error carries field errors
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity || len(e.Errors) > 0
}

// FieldNames returns the invalid fields in a stable order
func (e *APIError) FieldNames() []string {
	names := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AsAPIError unwraps err into an *APIError when possible
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether the backend rejected the credentials
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// errorBody covers the shapes the backend uses for failures
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := sonic.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
		apiErr.Errors = eb.Errors
		return apiErr
	}

	// Non-JSON bodies (proxy error pages) are kept for logs only
	apiErr.Body = strings.TrimSpace(string(body))
	if len(apiErr.Body) > 200 {
		apiErr.Body = apiErr.Body[:200]
	}
	return apiErr
}
