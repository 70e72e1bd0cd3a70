package crmapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

var _ driven.StatusError = (*APIError)(nil)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the tenant API.
type APIError struct {
	StatusCode  int
	Method      string
	Path        string
	Message     string
	FieldErrors map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the port sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return driven.ErrUnauthorized
	case http.StatusForbidden:
		return driven.ErrForbidden
	case http.StatusNotFound:
		return driven.ErrNotFound
	default:
		return nil
	}
}

// Status returns the HTTP status code of the answer.
func (e *APIError) Status() int { return e.StatusCode }

// UserMessage is the server-provided text suitable for showing to the operator.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     resp.Request.Method,
		Path:       resp.Request.URL.Path,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if strings.HasPrefix(apiErr.Message, "<") {
			apiErr.Message = ""
		}
		return apiErr
	}

	for _, key := range []string{"detail", "error", "message"} {
		if raw, ok := decoded[key]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				apiErr.Message = s
				return apiErr
			}
		}
	}

	apiErr.FieldErrors = fieldErrors(decoded)
	apiErr.Message = joinFieldErrors(apiErr.FieldErrors)
	return apiErr
}

// fieldErrors extracts {"field": ["msg", ...]} and {"field": "msg"} entries.
func fieldErrors(decoded map[string]json.RawMessage) map[string][]string {
	out := make(map[string][]string)
	for field, raw := range decoded {
		var list []string
		if json.Unmarshal(raw, &list) == nil {
			if len(list) > 0 {
				out[field] = list
			}
			continue
		}
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" {
			out[field] = []string{single}
		}
	}
	return out
}

// joinFieldErrors concatenates messages in field order so the result is stable.
func joinFieldErrors(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		msgs = append(msgs, fields[k]...)
	}
	return strings.Join(msgs, " ")
}
